package tree

import (
	"gopkg.in/yaml.v3"
)

// Print renders the shape of c as YAML: directories become mappings and
// files empty strings
func Print[T any](c Contents[T]) string {
	if len(c) == 0 {
		return "{}\n"
	}
	out, err := yaml.Marshal(shape(c))
	if err != nil {
		return err.Error()
	}
	return string(out)
}

func shape[T any](c Contents[T]) map[string]interface{} {
	m := make(map[string]interface{}, len(c))
	for name, node := range c {
		if node.IsDir() {
			m[name] = shape(node.Contents)
		} else {
			m[name] = ""
		}
	}
	return m
}
