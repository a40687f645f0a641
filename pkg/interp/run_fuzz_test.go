package interp_test

import (
	"testing"
	"time"

	"github.com/ecorun/ecolang/pkg/govern"
	"github.com/ecorun/ecolang/pkg/interp"
)

// FuzzRun executes random programs under tight budgets. Run must never
// panic and never hang: bad input produces a diagnostic, not a crash.
func FuzzRun(f *testing.F) {
	seeds := []string{
		"say \"hi\"",
		"let x = 1\nsay x + 1",
		"const c = 2\nsay c",
		"if 1 > 0 then\nsay \"yes\"\nelse\nsay \"no\"\nend",
		"repeat 3 times\nsay \"tick\"\nend",
		"let i = 0\nwhile i < 3 then\nlet i = i + 1\nend",
		"for i = 1 to 3\nsay i\nend",
		"func f a\nreturn a * 2\nend\nlet r = 0\ncall f with 5 into r",
		"ask name\nsay name",
		"ecoTip",
		"savePower 50",
		"warn \"careful\"",
		"# just a comment",
		"",
		"end",
		"if then",
		"let = 5",
		"call nothing",
		"return 1",
		"say 1 / 0",
		"say undefined_var",
	}

	for _, s := range seeds {
		f.Add(s)
	}

	limits := govern.DefaultLimits()
	limits.MaxSteps = 2000
	limits.MaxLoop = 50
	limits.MaxTime = 200 * time.Millisecond
	limits.MaxOutputChars = 1000

	f.Fuzz(func(t *testing.T, input string) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("Run panicked on input %q: %v", input, r)
			}
		}()
		interp.Run(input, nil, interp.WithLimits(limits))
	})
}
