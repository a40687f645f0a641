package interp_test

import (
	"strings"
	"testing"
	"time"

	"github.com/ecorun/ecolang/pkg/diag"
	"github.com/ecorun/ecolang/pkg/eco"
	"github.com/ecorun/ecolang/pkg/govern"
	"github.com/ecorun/ecolang/pkg/interp"
	"github.com/ecorun/ecolang/pkg/value"
)

// --- helpers ---

// run executes source with no inputs and default limits.
func run(t *testing.T, src string) interp.Result {
	t.Helper()
	return interp.Run(src, nil)
}

// mustRun executes source and fails the test on any diagnostic.
func mustRun(t *testing.T, src string) interp.Result {
	t.Helper()
	res := run(t, src)
	if res.Err != nil {
		t.Fatalf("unexpected error: [%s] %s (line %d)", res.Err.Code, res.Err.Message, res.Err.Line)
	}
	return res
}

func expectOutput(t *testing.T, res interp.Result, want string) {
	t.Helper()
	if res.Output != want {
		t.Fatalf("output mismatch:\n got: %q\nwant: %q", res.Output, want)
	}
}

func expectErrCode(t *testing.T, res interp.Result, code string) {
	t.Helper()
	if res.Err == nil {
		t.Fatalf("expected %s error, got none (output %q)", code, res.Output)
	}
	if res.Err.Code != code {
		t.Fatalf("expected %s, got %s: %s", code, res.Err.Code, res.Err.Message)
	}
	if res.Eco != nil {
		t.Fatal("eco report must be nil when a run fails")
	}
}

func hasWarning(res interp.Result, substr string) bool {
	for _, w := range res.Warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

// --- basic statements ---

func TestSayHello(t *testing.T) {
	res := mustRun(t, `say "Hello " + toString(1+1)`)
	expectOutput(t, res, "Hello 2\n")
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}
	if res.Eco == nil || res.Eco.TotalOps <= 0 {
		t.Fatal("expected a positive total_ops eco report")
	}
}

func TestSayIntStaysInt(t *testing.T) {
	expectOutput(t, mustRun(t, "say 1+1"), "2\n")
	expectOutput(t, mustRun(t, "say 7/2"), "3.5\n")
	expectOutput(t, mustRun(t, "say 6/3"), "2.0\n")
}

func TestLetAndSay(t *testing.T) {
	res := mustRun(t, "let x = 4\nsay x * x")
	expectOutput(t, res, "16\n")
}

func TestCommentsAndBlanksSkipped(t *testing.T) {
	res := mustRun(t, "# greeting\n\nsay \"hi\"\n  # trailing comment\n")
	expectOutput(t, res, "hi\n")
}

func TestWarnGoesToWarningsNotOutput(t *testing.T) {
	res := mustRun(t, `warn "careful"`)
	expectOutput(t, res, "")
	if len(res.Warnings) != 1 || res.Warnings[0] != "careful" {
		t.Fatalf("warnings = %v", res.Warnings)
	}
}

func TestAskBindsInput(t *testing.T) {
	res := interp.Run("ask city\nsay city", map[string]value.Value{
		"city": value.NewStr("Aarhus"),
	})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	expectOutput(t, res, "Aarhus\n")
}

func TestAskMissingInput(t *testing.T) {
	res := interp.Run("ask city", map[string]value.Value{})
	expectErrCode(t, res, diag.RuntimeErr)
	if !strings.Contains(res.Err.Message, "Missing input for 'city'") {
		t.Fatalf("message = %q", res.Err.Message)
	}
}

func TestEcoTipOutput(t *testing.T) {
	res := mustRun(t, "ecoTip")
	if !strings.HasPrefix(res.Output, "ecoTip: ") {
		t.Fatalf("output = %q", res.Output)
	}
}

func TestUnknownStatement(t *testing.T) {
	res := run(t, "shout loudly")
	expectErrCode(t, res, diag.SyntaxError)
	if res.Err.Line != 1 {
		t.Fatalf("line = %d", res.Err.Line)
	}
	if res.Err.Context == nil || res.Err.Context.LineText != "shout loudly" {
		t.Fatalf("context = %v", res.Err.Context)
	}
}

// --- const semantics ---

func TestConstReassignViaLet(t *testing.T) {
	res := run(t, "const pi = 3.14\nlet pi = 3")
	expectErrCode(t, res, diag.RuntimeErr)
	if !strings.Contains(res.Err.Message, "Cannot reassign const 'pi'") {
		t.Fatalf("message = %q", res.Err.Message)
	}
}

func TestConstReassignViaConst(t *testing.T) {
	res := run(t, "const pi = 3.14\nconst pi = 3")
	expectErrCode(t, res, diag.RuntimeErr)
	if !strings.Contains(res.Err.Message, "already defined") {
		t.Fatalf("message = %q", res.Err.Message)
	}
}

func TestConstReassignInsideBlock(t *testing.T) {
	res := run(t, "const c = 1\nif 1 == 1 then\nlet c = 2\nend")
	expectErrCode(t, res, diag.RuntimeErr)
}

// --- control flow ---

func TestIfElse(t *testing.T) {
	res := mustRun(t, "if 1 > 2 then\n say \"no\"\nelse\n say \"yes\"\nend")
	expectOutput(t, res, "yes\n")
}

func TestIfElifElse(t *testing.T) {
	src := "let x = 2\nif x == 1 then\nsay \"one\"\nelif x == 2 then\nsay \"two\"\nelse\nsay \"many\"\nend"
	expectOutput(t, mustRun(t, src), "two\n")
}

func TestIfMutationsPersist(t *testing.T) {
	res := mustRun(t, "let x = 1\nif true then\nlet x = 2\nend\nsay x")
	expectOutput(t, res, "2\n")
}

func TestSecondElifRejected(t *testing.T) {
	src := "if false then\nsay 1\nelif false then\nsay 2\nelif true then\nsay 3\nend"
	res := run(t, src)
	expectErrCode(t, res, diag.SyntaxError)
	if !strings.Contains(res.Err.Message, "Only one 'elif'") {
		t.Fatalf("message = %q", res.Err.Message)
	}
}

func TestIfMissingThen(t *testing.T) {
	res := run(t, "if 1 > 0\nsay 1\nend")
	expectErrCode(t, res, diag.SyntaxError)
	if !strings.Contains(res.Err.Message, "Expected 'then'") {
		t.Fatalf("message = %q", res.Err.Message)
	}
}

func TestNestedIf(t *testing.T) {
	src := "if true then\nif false then\nsay \"inner-no\"\nelse\nsay \"inner-yes\"\nend\nend"
	expectOutput(t, mustRun(t, src), "inner-yes\n")
}

func TestUnmatchedEnd(t *testing.T) {
	res := run(t, "end")
	expectErrCode(t, res, diag.SyntaxError)
}

func TestMissingEnd(t *testing.T) {
	res := run(t, "if true then\nsay 1")
	expectErrCode(t, res, diag.SyntaxError)
	if !strings.Contains(res.Err.Message, "Missing end") {
		t.Fatalf("message = %q", res.Err.Message)
	}
}

func TestRepeat(t *testing.T) {
	res := mustRun(t, "repeat 3 times\nsay \"x\"\nend")
	expectOutput(t, res, "x\nx\nx\n")
}

func TestRepeatCountMustBeLiteral(t *testing.T) {
	res := run(t, "let n = 3\nrepeat n times\nsay 1\nend")
	expectErrCode(t, res, diag.SyntaxError)
	if !strings.Contains(res.Err.Message, "Invalid repeat count") {
		t.Fatalf("message = %q", res.Err.Message)
	}
}

func TestRepeatTruncation(t *testing.T) {
	limits := govern.DefaultLimits()
	limits.MaxLoop = 5
	res := interp.Run("repeat 100 times\nlet x = 1\nend", nil, interp.WithLimits(limits))
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	count := 0
	for _, w := range res.Warnings {
		if w == "Repeat count limited to 5" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one truncation warning, got %d (%v)", count, res.Warnings)
	}
}

func TestRepeatAtCapNoWarning(t *testing.T) {
	limits := govern.DefaultLimits()
	limits.MaxLoop = 5
	res := interp.Run("repeat 5 times\nsay \"a\"\nend", nil, interp.WithLimits(limits))
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	expectOutput(t, res, "a\na\na\na\na\n")
	if hasWarning(res, "limited") {
		t.Fatalf("unexpected truncation warning: %v", res.Warnings)
	}
}

func TestWhileCountdown(t *testing.T) {
	res := mustRun(t, "let n = 3\nwhile n > 0 then\nsay n\nlet n = n - 1\nend")
	expectOutput(t, res, "3\n2\n1\n")
}

func TestWhileIterationCap(t *testing.T) {
	limits := govern.DefaultLimits()
	limits.MaxLoop = 4
	res := interp.Run("let n = 0\nwhile true then\nlet n = n + 1\nend\nsay n", nil,
		interp.WithLimits(limits))
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	expectOutput(t, res, "4\n")
	if !hasWarning(res, "While iterations limited to 4") {
		t.Fatalf("warnings = %v", res.Warnings)
	}
}

func TestForInclusiveRange(t *testing.T) {
	res := mustRun(t, "for i = 1 to 3\nsay i\nend")
	expectOutput(t, res, "1\n2\n3\n")
}

func TestForDownwardDefaultStep(t *testing.T) {
	res := mustRun(t, "for i = 3 to 1\nsay i\nend")
	expectOutput(t, res, "3\n2\n1\n")
}

func TestForExplicitStep(t *testing.T) {
	res := mustRun(t, "for i = 0 to 10 step 5\nsay i\nend")
	expectOutput(t, res, "0\n5\n10\n")
}

func TestForVariableVisibleAfterLoop(t *testing.T) {
	res := mustRun(t, "for i = 1 to 3\nlet x = i\nend\nsay i")
	expectOutput(t, res, "3\n")
}

func TestForZeroStep(t *testing.T) {
	res := run(t, "for i = 1 to 3 step 0\nsay i\nend")
	expectErrCode(t, res, diag.RuntimeErr)
	if !strings.Contains(res.Err.Message, "step cannot be 0") {
		t.Fatalf("message = %q", res.Err.Message)
	}
}

// --- functions ---

func TestCallInto(t *testing.T) {
	src := "func add a b\nreturn a + b\nend\ncall add with 2, 3 into r\nsay r"
	res := mustRun(t, src)
	expectOutput(t, res, "5\n")
	if !hasWarning(res, "func defined: add") {
		t.Fatalf("warnings = %v", res.Warnings)
	}
}

func TestCallWithoutIntoPrintsReturn(t *testing.T) {
	src := "func greet name\nreturn \"Hello \" + name\nend\ncall greet with \"Eco\""
	expectOutput(t, mustRun(t, src), "Hello Eco\n")
}

func TestCallArgumentCountMismatch(t *testing.T) {
	src := "func add a b\nreturn a + b\nend\ncall add with 1"
	res := run(t, src)
	expectErrCode(t, res, diag.RuntimeErr)
	if !strings.Contains(res.Err.Message, "expects 2") || !strings.Contains(res.Err.Message, "got 1") {
		t.Fatalf("message must cite both counts: %q", res.Err.Message)
	}
}

func TestCallUnknownFunction(t *testing.T) {
	res := run(t, "call nothing")
	expectErrCode(t, res, diag.RuntimeErr)
	if !strings.Contains(res.Err.Message, "Unknown function 'nothing'") {
		t.Fatalf("message = %q", res.Err.Message)
	}
}

func TestFunctionFrameSeesOnlyParams(t *testing.T) {
	src := "let secret = 42\nfunc leak\nreturn secret\nend\ncall leak into r"
	res := run(t, src)
	expectErrCode(t, res, diag.RuntimeErr)
	if !strings.Contains(res.Err.Message, "Undefined variable 'secret'") {
		t.Fatalf("message = %q", res.Err.Message)
	}
}

func TestFallthroughReturnBindsZero(t *testing.T) {
	src := "func quiet\nlet x = 1\nend\ncall quiet into r\nsay r"
	expectOutput(t, mustRun(t, src), "0\n")
}

func TestFallthroughWithoutIntoPrintsNothing(t *testing.T) {
	src := "func quiet\nlet x = 1\nend\ncall quiet"
	expectOutput(t, mustRun(t, src), "")
}

func TestFunctionOutputFlows(t *testing.T) {
	src := "func shout msg\nsay msg\nsay msg\nend\ncall shout with \"hey\""
	expectOutput(t, mustRun(t, src), "hey\nhey\n")
}

func TestReturnOutsideFunction(t *testing.T) {
	res := run(t, "return 1")
	expectErrCode(t, res, diag.RuntimeErr)
	if !strings.Contains(res.Err.Message, "'return' outside function") {
		t.Fatalf("message = %q", res.Err.Message)
	}
}

func TestReturnInsideLoopExitsFunction(t *testing.T) {
	src := "func firstOf n\nfor i = 1 to n\nreturn i\nend\nreturn 0 - 1\nend\ncall firstOf with 9 into r\nsay r"
	expectOutput(t, mustRun(t, src), "1\n")
}

func TestCallDepthLimit(t *testing.T) {
	src := "func loop\ncall loop\nend\ncall loop"
	res := run(t, src)
	expectErrCode(t, res, diag.RuntimeErr)
	if !strings.Contains(res.Err.Message, "Call depth limit exceeded") {
		t.Fatalf("message = %q", res.Err.Message)
	}
}

func TestTooManyParams(t *testing.T) {
	res := run(t, "func wide a b c d\nreturn 1\nend")
	expectErrCode(t, res, diag.SyntaxError)
	if !strings.Contains(res.Err.Message, "Too many params (max 3)") {
		t.Fatalf("message = %q", res.Err.Message)
	}
}

// --- budgets ---

func TestStepLimit(t *testing.T) {
	limits := govern.DefaultLimits()
	limits.MaxSteps = 10
	res := interp.Run("while true then\nlet x = 1\nend", nil, interp.WithLimits(limits))
	expectErrCode(t, res, diag.StepLimit)
}

func TestTimeoutNeverHangs(t *testing.T) {
	limits := govern.DefaultLimits()
	limits.MaxTime = 30 * time.Millisecond
	limits.MaxSteps = 1 << 40
	limits.MaxLoop = 1 << 40
	done := make(chan interp.Result, 1)
	go func() {
		done <- interp.Run("let n = 0\nwhile true then\nlet n = n + 1\nend", nil,
			interp.WithLimits(limits))
	}()
	select {
	case res := <-done:
		if res.Err == nil {
			t.Fatal("expected a resource error")
		}
		if res.Err.Code != diag.Timeout && res.Err.Code != diag.StepLimit {
			t.Fatalf("code = %s", res.Err.Code)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not terminate")
	}
}

func TestOutputLimitPreservesPartialOutput(t *testing.T) {
	limits := govern.DefaultLimits()
	limits.MaxOutputChars = 10
	res := interp.Run("say \"12345\"\nsay \"12345\"\nsay \"12345\"", nil,
		interp.WithLimits(limits))
	expectErrCode(t, res, diag.OutputLimit)
	expectOutput(t, res, "12345\n12345\n")
}

// --- eco accounting ---

func TestTotalOpsLinearProgram(t *testing.T) {
	// dispatch other(5) + print(50) for say; dispatch other(5) + assign(5)
	// for let; plus math ops per evaluated node (one literal node each).
	res := mustRun(t, "let x = 1\nsay x")
	// let: 5 + 10 (one literal) + 5; say: 5 + 10 (one ident) + 50
	if res.Eco.TotalOps != 85 {
		t.Fatalf("total_ops = %d", res.Eco.TotalOps)
	}
}

func TestSavePowerScalesCosts(t *testing.T) {
	full := mustRun(t, "say 1")
	scaled := mustRun(t, "savePower 90\nsay 1")
	if !hasWarning(scaled, "savePower applied: level 90") {
		t.Fatalf("warnings = %v", scaled.Warnings)
	}
	// the say statement's costs shrink to 10% after savePower 90
	if scaled.Eco.TotalOps >= full.Eco.TotalOps {
		t.Fatalf("scaled %d should be below full %d", scaled.Eco.TotalOps, full.Eco.TotalOps)
	}
}

func TestSavePowerMonotonic(t *testing.T) {
	res := mustRun(t, "savePower 90\nsavePower 0\nsay 1")
	// the later savePower 0 must not raise the scale back to 1.0
	if !hasWarning(res, "savePower applied: level 0") {
		t.Fatalf("warnings = %v", res.Warnings)
	}
	low := mustRun(t, "savePower 90\nsay 1")
	if res.Eco.TotalOps > low.Eco.TotalOps {
		t.Fatalf("scale increased after a weaker savePower: %d > %d",
			res.Eco.TotalOps, low.Eco.TotalOps)
	}
}

func TestHighUsageWarning(t *testing.T) {
	res := mustRun(t, "repeat 50 times\nsay \"x\"\nend")
	if !hasWarning(res, "High estimated energy use") {
		t.Fatalf("warnings = %v", res.Warnings)
	}
	if len(res.Eco.Tips) == 0 {
		t.Fatal("expected a high-usage tip")
	}
}

func TestEcoReportShape(t *testing.T) {
	res := mustRun(t, "say 1")
	if res.Eco.EnergyJ <= 0 || res.Eco.EnergyKWh <= 0 || res.Eco.CO2G <= 0 {
		t.Fatalf("eco = %+v", res.Eco)
	}
	if res.Eco.EnergyKWh >= res.Eco.EnergyJ {
		t.Fatal("kWh must be smaller than J")
	}
	if res.DurationMS < 0 {
		t.Fatalf("duration_ms = %d", res.DurationMS)
	}
}

func TestEcoOpsBuiltinReflectsAccounting(t *testing.T) {
	res := mustRun(t, "let a = ecoOps()\nlet b = ecoOps()\nsay b > a")
	expectOutput(t, res, "true\n")
}

// --- arrays through a program ---

func TestArrayPipeline(t *testing.T) {
	src := "let a = append(append(array(), 1), 2)\nsay at(a, 1)\nsay length(a)"
	expectOutput(t, mustRun(t, src), "2\n2\n")
}

func TestArrayOutOfRange(t *testing.T) {
	res := run(t, "say at(array(), 0)")
	expectErrCode(t, res, diag.RuntimeErr)
	if !strings.Contains(res.Err.Message, "index out of range") {
		t.Fatalf("message = %q", res.Err.Message)
	}
}

// --- isolation ---

func TestRunsAreIsolated(t *testing.T) {
	first := interp.Run("let x = 99", nil)
	if first.Err != nil {
		t.Fatalf("unexpected error: %v", first.Err)
	}
	second := interp.Run("say x", nil)
	expectErrCode(t, second, diag.RuntimeErr)
}

func TestConcurrentRuns(t *testing.T) {
	done := make(chan interp.Result, 8)
	for i := 0; i < 8; i++ {
		go func() {
			done <- interp.Run("let x = 1\nrepeat 10 times\nlet x = x + 1\nend\nsay x", nil)
		}()
	}
	for i := 0; i < 8; i++ {
		res := <-done
		if res.Err != nil {
			t.Fatalf("unexpected error: %v", res.Err)
		}
		if res.Output != "11\n" {
			t.Fatalf("output = %q", res.Output)
		}
	}
}

// --- tracing ---

func TestTraceEvents(t *testing.T) {
	var kinds []string
	interp.Run("say 1", nil, interp.WithTrace(func(ev interp.TraceEvent) {
		kinds = append(kinds, ev.Kind)
	}))
	joined := strings.Join(kinds, ",")
	if !strings.Contains(joined, interp.TraceRunStart) ||
		!strings.Contains(joined, interp.TraceStatement) ||
		!strings.Contains(joined, interp.TraceRunEnd) {
		t.Fatalf("kinds = %v", kinds)
	}
}

func TestCustomWeightTable(t *testing.T) {
	weights := eco.DefaultWeights()
	weights[eco.Print] = 500
	res := interp.Run("say 1", nil, interp.WithWeights(weights))
	if res.Err != nil {
		t.Fatalf("unexpected error: %+v", res.Err)
	}
	// dispatch other(5) + one literal node math(10) + print(500)
	if res.Eco.TotalOps != 515 {
		t.Fatalf("total_ops = %d", res.Eco.TotalOps)
	}
}
