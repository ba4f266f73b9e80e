// Package checkmate records a timeline of steps, soft assertions and data attachments for each
// running test.
//
// Typical use:
//
//	func TestCheckout(t *testing.T) {
//		checkmate.Track(t)
//
//		checkmate.Step(t, "open cart").Run(func() {
//			resp := openCart()
//			checkmate.SoftAssert(t, resp.StatusCode == 200, checkmate.With("resp", resp))
//			checkmate.AddDataReport(t, resp.Body, "cart")
//		})
//	}
//
// Track begins the test's timeline and, when the test ends, fails it if any soft assertion
// failed and passes the finished timeline to the configured framework.TestLogger. Calls made
// for a test that is not tracked still run their bodies and evaluate their conditions, but
// nothing is recorded.
//
// In TestMain, Main installs a report collector configured from the environment:
//
//	func TestMain(m *testing.M) {
//		os.Exit(checkmate.Main(m))
//	}
package checkmate
