package nostress

// Notes:
// - Every test in the package runs under goleak: resolver worker pools,
//   singleflight loads and SQLite connections must all be released

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// regexp2 keeps one shared timeout clock alive for the process.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("github.com/dlclark/regexp2.runClock"))
}
