package document

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/FlavioFalcao/object-recognition-core/pkg/jsondoc"
	"github.com/FlavioFalcao/object-recognition-core/pkg/objectdb"
)

// readFields parses the document body from -data, or from -file when data
// is empty. Files ending in .yaml or .yml are read as YAML, anything else as
// JSON.
func readFields(fs afero.Fs, data, file string) (objectdb.Fields, error) {
	switch {
	case data != "" && file != "":
		return nil, fmt.Errorf("only one of -data and -file may be set")
	case data != "":
		return jsondoc.Parse([]byte(data))
	case file != "":
		b, err := afero.ReadFile(fs, file)
		if err != nil {
			return nil, err
		}
		return codecFor(file).Read(bytes.NewReader(b))
	}
	return nil, fmt.Errorf("one of -data or -file is required")
}

func codecFor(path string) jsondoc.Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return jsondoc.YAML
	}
	return jsondoc.JSON
}
