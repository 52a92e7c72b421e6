package ingest

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/akolanti/RagBot/internal/domain/commonModels"
)

// LoadedDoc is one file the builder will ingest. Name is the path relative
// to the docs root and doubles as the stable source id across rebuilds.
type LoadedDoc struct {
	Path string
	Name string
	Type commonModels.DocType
}

// DiscoverDocuments walks root and returns every supported file, sorted by
// name so a rebuild processes documents in a stable order.
func DiscoverDocuments(root string) ([]LoadedDoc, error) {
	var docs []LoadedDoc

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			//skip .git and friends
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		docType := getDocType(path)
		if docType == commonModels.ERR {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = d.Name()
		}
		docs = append(docs, LoadedDoc{Path: path, Name: filepath.ToSlash(rel), Type: docType})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}
