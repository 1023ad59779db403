package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Provide describes one provider function of the module.
type Provide struct {
	// Func is the provider function, or any expression evaluating to one.
	Func      string   `yaml:"func"`
	Name      string   `yaml:"name"`
	Singleton bool     `yaml:"singleton"`
	Params    []string `yaml:"params"`
}

// Spec is the full input schema consumed by the generator.
type Spec struct {
	Package   string `yaml:"package"`
	Module    string `yaml:"module"`
	Overrides bool   `yaml:"overrides"`

	ScanEntryPoints  bool      `yaml:"scanEntryPoints"`
	EntryPoints      []string  `yaml:"entryPoints"`
	StaticInjections []string  `yaml:"staticInjections"`
	Provides         []Provide `yaml:"provides"`
	Includes         []string  `yaml:"includes"`
	Imports          []string  `yaml:"imports"`
}

// decls is what a package directory declares.
type decls struct {
	types      map[string]bool
	injectable []string
	vars       map[string]bool
	funcs      map[string]bool
}

type templateData struct {
	Spec    Spec
	Imports []string
}

const modulePath = "github.com/sghaida/objectgraph/module"

// run executes the generator logic and returns an exit code.
// It exists separately from main to allow unit testing without os.Exit.
func run(args []string, stderr io.Writer) int {
	flags := flag.NewFlagSet("modulegen", flag.ContinueOnError)
	flags.SetOutput(stderr)

	specPath := flags.String("spec", "", "path to the *.module.yaml spec")
	outPath := flags.String("out", "", "output .gen.go file path")

	if err := flags.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(*specPath) == "" || strings.TrimSpace(*outPath) == "" {
		_, _ = fmt.Fprintln(stderr, "usage: modulegen -spec <file.module.yaml> -out <file.gen.go>")
		return 2
	}

	if err := generate(*specPath, filepath.Clean(*outPath)); err != nil {
		_, _ = fmt.Fprintln(stderr, "modulegen:", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func generate(specPath, outPath string) error {
	raw, err := os.ReadFile(specPath)
	if err != nil {
		return err
	}
	var spec Spec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return fmt.Errorf("decode %s: %w", specPath, err)
	}
	if err := validateSpec(&spec); err != nil {
		return err
	}

	packageDir := filepath.Dir(outPath)
	found, err := scanPackage(packageDir, filepath.Base(outPath))
	if err != nil {
		return err
	}
	if spec.ScanEntryPoints {
		spec.EntryPoints = mergeNames(spec.EntryPoints, found.injectable)
	}
	if err := checkDeclared(&spec, found); err != nil {
		return err
	}

	src, err := render(spec)
	if err != nil {
		return err
	}
	return writeFileAtomic(outPath, src, 0o644)
}

// validateSpec validates semantic correctness of a module description.
func validateSpec(spec *Spec) error {
	var missing []string
	if strings.TrimSpace(spec.Package) == "" {
		missing = append(missing, "package")
	}
	if strings.TrimSpace(spec.Module) == "" {
		missing = append(missing, "module")
	}
	if len(missing) > 0 {
		return fmt.Errorf("spec missing required fields: %v", missing)
	}
	if !token.IsIdentifier(spec.Package) || !token.IsIdentifier(spec.Module) {
		return fmt.Errorf("package and module must be identifiers; got %q and %q", spec.Package, spec.Module)
	}

	seen := make(map[string]bool, len(spec.EntryPoints))
	for _, ep := range spec.EntryPoints {
		if !isTypeName(ep) {
			return fmt.Errorf("entry point %q is not a type name", ep)
		}
		if seen[ep] {
			return fmt.Errorf("duplicate entry point: %s", ep)
		}
		seen[ep] = true
	}
	for _, s := range spec.StaticInjections {
		if !isTypeName(s) {
			return fmt.Errorf("static injection %q is not a variable name", s)
		}
	}
	for i, p := range spec.Provides {
		if strings.TrimSpace(p.Func) == "" {
			return fmt.Errorf("provides[%d] has no func", i)
		}
		if _, err := parser.ParseExpr(p.Func); err != nil {
			return fmt.Errorf("provides[%d]: %w", i, err)
		}
	}
	for _, inc := range spec.Includes {
		if _, err := parser.ParseExpr(inc); err != nil {
			return fmt.Errorf("include %q: %w", inc, err)
		}
	}
	return nil
}

// isTypeName accepts Name and pkg.Name.
func isTypeName(s string) bool {
	pkg, name, qualified := strings.Cut(s, ".")
	if !qualified {
		return token.IsIdentifier(s)
	}
	return token.IsIdentifier(pkg) && token.IsIdentifier(name)
}

// scanPackage parses the Go files of dir, skipping tests, generated files
// and skip, and records their top-level declarations.
func scanPackage(dir, skip string) (decls, error) {
	found := decls{types: map[string]bool{}, vars: map[string]bool{}, funcs: map[string]bool{}}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return found, err
	}

	fileSet := token.NewFileSet()
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == skip ||
			!strings.HasSuffix(name, ".go") ||
			strings.HasSuffix(name, "_test.go") ||
			strings.HasSuffix(name, ".gen.go") {
			continue
		}

		file, err := parser.ParseFile(fileSet, filepath.Join(dir, name), nil, parser.SkipObjectResolution)
		if err != nil {
			return found, err
		}
		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				if d.Recv == nil {
					found.funcs[d.Name.Name] = true
				}
			case *ast.GenDecl:
				recordGenDecl(d, &found)
			}
		}
	}
	sort.Strings(found.injectable)
	return found, nil
}

func recordGenDecl(d *ast.GenDecl, found *decls) {
	for _, spec := range d.Specs {
		switch s := spec.(type) {
		case *ast.TypeSpec:
			found.types[s.Name.Name] = true
			if st, ok := s.Type.(*ast.StructType); ok && s.TypeParams == nil && hasInjectTag(st) {
				found.injectable = append(found.injectable, s.Name.Name)
			}
		case *ast.ValueSpec:
			if d.Tok != token.VAR {
				continue
			}
			for _, n := range s.Names {
				found.vars[n.Name] = true
			}
		}
	}
}

func hasInjectTag(st *ast.StructType) bool {
	for _, f := range st.Fields.List {
		if f.Tag == nil {
			continue
		}
		tag, err := strconv.Unquote(f.Tag.Value)
		if err != nil {
			continue
		}
		if _, ok := reflect.StructTag(tag).Lookup("inject"); ok {
			return true
		}
	}
	return false
}

// checkDeclared reports names the spec uses that the package does not
// declare. Package-qualified names are left to the compiler.
func checkDeclared(spec *Spec, found decls) error {
	var errs []error
	for _, ep := range spec.EntryPoints {
		if !strings.Contains(ep, ".") && !found.types[ep] {
			errs = append(errs, fmt.Errorf("entry point %s is not declared in the package", ep))
		}
	}
	for _, s := range spec.StaticInjections {
		if !strings.Contains(s, ".") && !found.vars[s] {
			errs = append(errs, fmt.Errorf("static injection %s is not a package variable", s))
		}
	}
	for _, p := range spec.Provides {
		if token.IsIdentifier(p.Func) && !found.funcs[p.Func] && !found.vars[p.Func] {
			errs = append(errs, fmt.Errorf("provider %s is not declared in the package", p.Func))
		}
	}
	if found.types[spec.Module] {
		errs = append(errs, fmt.Errorf("module %s is already declared in the package", spec.Module))
	}
	return errors.Join(errs...)
}

func mergeNames(declared, scanned []string) []string {
	out := append([]string(nil), declared...)
	seen := make(map[string]bool, len(declared))
	for _, n := range declared {
		seen[n] = true
	}
	for _, n := range scanned {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// render executes the template and gofmt's the result.
func render(spec Spec) ([]byte, error) {
	imports := append([]string{modulePath}, spec.Imports...)
	sort.Strings(imports)

	var out bytes.Buffer
	if err := genTemplate.Execute(&out, templateData{Spec: spec, Imports: imports}); err != nil {
		return nil, err
	}
	src, err := format.Source(out.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format generated code: %w", err)
	}
	return src, nil
}

var genTemplate = template.Must(template.New("modulegen").Funcs(template.FuncMap{
	"quote": strconv.Quote,
	"quoteAll": func(ss []string) string {
		q := make([]string, len(ss))
		for i, s := range ss {
			q[i] = strconv.Quote(s)
		}
		return strings.Join(q, ", ")
	},
}).Parse(`// Code generated by modulegen; DO NOT EDIT.

package {{.Spec.Package}}

import (
{{- range .Imports}}
	{{quote .}}
{{- end}}
)

// {{.Spec.Module}} is an objectgraph module.
type {{.Spec.Module}} struct{}

// Configure implements module.Module.
func ({{.Spec.Module}}) Configure(b *module.Binder) {
{{- if .Spec.Overrides}}
	b.Overrides()
{{- end}}
{{- if .Spec.EntryPoints}}
	b.EntryPoints(
	{{- range .Spec.EntryPoints}}
		(*{{.}})(nil),
	{{- end}}
	)
{{- end}}
{{- range .Spec.StaticInjections}}
	b.StaticInjections(&{{.}})
{{- end}}
{{- range .Spec.Provides}}
	b.Provides({{.Func}}
		{{- if .Name}}, module.Named({{quote .Name}}){{end}}
		{{- if .Singleton}}, module.Singleton(){{end}}
		{{- if .Params}}, module.Params({{quoteAll .Params}}){{end}})
{{- end}}
{{- if .Spec.Includes}}
	b.Include(
	{{- range .Spec.Includes}}
		{{.}},
	{{- end}}
	)
{{- end}}
}
`))

// tempFile abstracts an os.File for testability.
type tempFile interface {
	Name() string
	Write([]byte) (int, error)
	Close() error
}

// File operation hooks, overridden in tests.
var (
	createTempFile = func(dir, pattern string) (tempFile, error) { return os.CreateTemp(dir, pattern) }
	chmodFile      = os.Chmod
	renameFile     = os.Rename
	removeFile     = os.Remove
)

// writeFileAtomic writes to a temporary file in the target directory and
// renames it over targetPath, so readers never observe partial writes.
func writeFileAtomic(targetPath string, data []byte, perm os.FileMode) (err error) {
	tmpFile, err := createTempFile(filepath.Dir(targetPath), filepath.Base(targetPath)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if err != nil {
			_ = removeFile(tmpPath)
		}
	}()

	if _, err = tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err = tmpFile.Close(); err != nil {
		return err
	}
	if err = chmodFile(tmpPath, perm); err != nil {
		return err
	}
	return renameFile(tmpPath, targetPath)
}
