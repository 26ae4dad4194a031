package harness

import (
	"github.com/roach88/keepmark/internal/report"
	"github.com/roach88/keepmark/internal/shrink"
)

// Scenario is one marking run over a described program, with the verdicts
// it must produce.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Program is a CUE file or package directory describing the program.
	// Relative paths are resolved against the scenario file.
	Program string `yaml:"program,omitempty"`

	// Source is an inline CUE description, used when Program is empty.
	Source string `yaml:"source,omitempty"`

	// Marker selects "shortest" (default) or "simple".
	Marker string `yaml:"marker,omitempty"`

	// Policy selects "conservative" (default) or "precise".
	Policy string `yaml:"policy,omitempty"`

	// Keep replaces the program's own keep directives when set.
	Keep *shrink.Seeds `yaml:"keep,omitempty"`

	// Assertions validate the marks after the run.
	Assertions []Assertion `yaml:"assertions"`

	// Explain lists nodes whose explanations are compared against the
	// scenario's golden file.
	Explain []string `yaml:"explain,omitempty"`
}

// Assertion validates the outcome of a run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Nodes and State are used by "state": every node must be in State.
	Nodes []string `yaml:"nodes,omitempty"`
	State string   `yaml:"state,omitempty"`

	// Node, Reason, Class, Member, Depth and Certain are used by "cause":
	// the first hop of Node's explanation must match every field given.
	Node    string `yaml:"node,omitempty"`
	Reason  string `yaml:"reason,omitempty"`
	Class   string `yaml:"class,omitempty"`
	Member  string `yaml:"member,omitempty"`
	Depth   *int   `yaml:"depth,omitempty"`
	Certain *bool  `yaml:"certain,omitempty"`

	// Stat and Count are used by "stat": the named Stats counter must
	// equal Count.
	Stat  string `yaml:"stat,omitempty"`
	Count int    `yaml:"count,omitempty"`

	// Contains is used by "error": the run must fail with an error whose
	// message contains it.
	Contains string `yaml:"contains,omitempty"`

	// Resource, Package and Facades are used by "kotlin_facades": after
	// the run, the named package of the resource's Kotlin module must list
	// exactly Facades.
	Resource string   `yaml:"resource,omitempty"`
	Package  string   `yaml:"package,omitempty"`
	Facades  []string `yaml:"facades,omitempty"`
}

// Assertion types.
const (
	AssertState = "state"
	AssertCause = "cause"
	AssertStat  = "stat"
	AssertError = "error"

	AssertKotlinFacades = "kotlin_facades"
)

// Marker kinds.
const (
	MarkerShortest = "shortest"
	MarkerSimple   = "simple"
)

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true when every assertion holds.
	Pass bool `json:"pass"`

	// Errors holds one message per failed assertion.
	Errors []string `json:"errors,omitempty"`

	// Stats is nil when the run failed.
	Stats *shrink.Stats `json:"stats,omitempty"`

	// Report holds the verdict on every program class, member and
	// resource file. Nil when the run failed.
	Report *report.Report `json:"report,omitempty"`

	// RunErr is the error the run returned, if any.
	RunErr error `json:"-"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError records a failed assertion.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
