package utils

import (
	"io"
	"path/filepath"

	"github.com/CloudyKit/jet"
)

// ExecuteWriteTemplateFile renders the jet template at path with data as the
// execution context and writes the result to w.
func ExecuteWriteTemplateFile(w io.Writer, data interface{}, path string) error {
	view := jet.NewSet(jet.SafeWriter(func(w io.Writer, b []byte) {
		w.Write(b)
	}), filepath.Dir(path), "/")

	template, err := view.GetTemplate(filepath.Base(path))
	if err != nil {
		return err
	}

	vars := make(jet.VarMap)
	return template.Execute(w, vars, data)
}
