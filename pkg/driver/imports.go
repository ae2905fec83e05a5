package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pogyomo/mini/pkg/ast"
	"github.com/pogyomo/mini/pkg/diag"
	"github.com/pogyomo/mini/pkg/lexer"
	"github.com/pogyomo/mini/pkg/parser"
)

// ResolveImports reads and parses every file named by a top-level
// ImportDecl in decls, concurrently across independent files (the only
// concurrency in the whole pipeline, and it completes strictly before
// HIR lowering begins), and returns decls with each imported file's
// declarations appended. A dotted import path `a.b.c` resolves to
// `<baseDir>/a/b/c.mini`.
func ResolveImports(decls []ast.Decl, baseDir string, cache *diag.SourceCache) ([]ast.Decl, error) {
	var imports []*ast.ImportDecl
	for _, d := range decls {
		if im, ok := d.(*ast.ImportDecl); ok {
			imports = append(imports, im)
		}
	}
	if len(imports) == 0 {
		return decls, nil
	}

	results := make([][]ast.Decl, len(imports))
	var g errgroup.Group
	for i, im := range imports {
		i, im := i, im
		g.Go(func() error {
			path := filepath.Join(baseDir, filepath.Join(strings.Split(strings.Join(im.Path, "."), ".")...)) + ".mini"
			fileDecls, err := parseImportFile(path, cache)
			if err != nil {
				return fmt.Errorf("import %s: %w", strings.Join(im.Path, "."), err)
			}
			results[i] = fileDecls
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]ast.Decl, 0, len(decls))
	merged = append(merged, decls...)
	for _, fileDecls := range results {
		merged = append(merged, fileDecls...)
	}
	return merged, nil
}

// parseImportFile reads, lexes, and parses one imported source file in
// isolation. It registers the file in cache under its own FileID so
// diagnostics inside an imported file still carry correct spans.
func parseImportFile(path string, cache *diag.SourceCache) ([]ast.Decl, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fileID := cache.Register(path, string(src))
	toks, err := lexer.Lex(fileID, string(src))
	if err != nil {
		return nil, err
	}
	file, err := parser.ParseFile(int(fileID), toks)
	if err != nil {
		return nil, err
	}
	return file.Decls, nil
}
