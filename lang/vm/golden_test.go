package vm_test

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/embervm/internal/filetest"
	"github.com/mna/embervm/lang/compiler"
	"github.com/mna/embervm/lang/vm"
)

var testUpdateGoldenTests = flag.Bool("test.update-golden-tests", false, "If set, replace expected vm golden test results with actual results.")

// TestGolden compiles and runs every fixture under testdata/in against its
// expected stdout/stderr in testdata/out, the way the compiler and vm
// packages are meant to be exercised together end to end.
func TestGolden(t *testing.T) {
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, fi := range filetest.SourceFiles(t, srcDir, ".ember") {
		t.Run(fi.Name(), func(t *testing.T) {
			src, err := readSource(filepath.Join(srcDir, fi.Name()))
			if err != nil {
				t.Fatal(err)
			}

			var out, errs bytes.Buffer
			fn, cerr := compiler.Compile(src)
			if cerr != nil {
				errs.WriteString(cerr.Error() + "\n")
			} else {
				m := vm.New()
				m.Stdout = &out
				if rerr := m.Run(fn); rerr != nil {
					errs.WriteString(rerr.Error() + "\n")
				}
			}

			filetest.DiffOutput(t, fi, out.String(), resultDir, testUpdateGoldenTests)
			filetest.DiffErrors(t, fi, errs.String(), resultDir, testUpdateGoldenTests)
		})
	}
}

func readSource(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
