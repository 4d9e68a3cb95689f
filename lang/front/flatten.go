package front

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/symlang/symvm/lang/ast"
)

// Flatten resolves every ast.ImportStmt in prog by parsing the named file
// (relative to baseDir) and splicing its statements in place, recursively,
// so that lang/compiler never sees an ImportStmt. Grounded on
// original_source/src/sym/main.py's parse_file(main_file, visited): a
// cycle-guarded, recursive single-pass flattening of the whole import
// graph into one combined AST before compilation.
func Flatten(prog *ast.Program, baseDir string) (*ast.Program, error) {
	return flatten(prog, baseDir, make(map[string]bool))
}

func flatten(prog *ast.Program, baseDir string, visited map[string]bool) (*ast.Program, error) {
	out := &ast.Program{Base: prog.Base}
	for _, stmt := range prog.Stmts {
		imp, ok := stmt.(*ast.ImportStmt)
		if !ok {
			out.Stmts = append(out.Stmts, stmt)
			continue
		}

		path := imp.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("import %q: %w", imp.Path, err)
		}
		if visited[abs] {
			return nil, fmt.Errorf("import %q: cyclic import", imp.Path)
		}

		src, err := os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("import %q: %w", imp.Path, err)
		}
		imported, err := Parse(src)
		if err != nil {
			return nil, fmt.Errorf("import %q: %w", imp.Path, err)
		}

		nested := make(map[string]bool, len(visited)+1)
		for k := range visited {
			nested[k] = true
		}
		nested[abs] = true

		flattened, err := flatten(imported, filepath.Dir(abs), nested)
		if err != nil {
			return nil, err
		}
		out.Stmts = append(out.Stmts, flattened.Stmts...)
	}
	return out, nil
}
