package notarize

import (
	"fmt"
	"sync"

	"github.com/bundlesmith/bundlesmith/pkg/runner"
	"howett.net/plist"
)

// MockSubmissionID is the id the simulated notary service assigns.
const MockSubmissionID = "2efe2717-52ef-43a5-96dc-0797e4ca1041"

// SimulateService returns a MockRunner handler that plays the notary
// service: submit succeeds, each info call returns the next entry of
// statuses (repeating the last one), and log returns logJSON. stapler and
// every other command go to next, or succeed when next is nil.
func SimulateService(statuses []string, logJSON string, next runner.HandlerFunc) runner.HandlerFunc {
	var (
		mu    sync.Mutex
		polls int
	)

	return func(name string, args []string) (*runner.Result, error) {
		if name != "xcrun" || len(args) < 2 || args[0] != "notarytool" {
			if next == nil {
				return &runner.Result{}, nil
			}
			return next(name, args)
		}

		switch args[1] {
		case "submit":
			return plistResult(map[string]string{
				"id":      MockSubmissionID,
				"message": "Successfully uploaded file",
				"path":    args[2],
			})
		case "info":
			mu.Lock()
			status := "In Progress"
			if len(statuses) > 0 {
				status = statuses[len(statuses)-1]
				if polls < len(statuses) {
					status = statuses[polls]
				}
			}
			polls++
			mu.Unlock()
			return plistResult(map[string]string{"id": MockSubmissionID, "status": status})
		case "log":
			return runner.Output(logJSON), nil
		default:
			return nil, fmt.Errorf("unexpected notarytool subcommand %q", args[1])
		}
	}
}

func plistResult(m map[string]string) (*runner.Result, error) {
	data, err := plist.MarshalIndent(m, plist.XMLFormat, "\t")
	if err != nil {
		return nil, err
	}
	return runner.Output(string(data)), nil
}
