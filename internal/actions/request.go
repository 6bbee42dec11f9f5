package actions

import (
	"fmt"
	"strings"

	"smartpick.dev/smartpick/internal/engine"
)

// ParseRequest turns command line arguments into a request. An argument of
// the form START..END names an inclusive ancestry range.
func ParseRequest(args, skip []string) (engine.Request, error) {
	var req engine.Request
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if strings.Contains(arg, "...") {
			return engine.Request{}, fmt.Errorf("invalid range %q: use START..END", arg)
		}
		start, end, isRange := strings.Cut(arg, "..")
		switch {
		case !isRange && arg != "":
			req.Items = append(req.Items, engine.RequestItem{Commit: arg})
		case isRange && start != "" && end != "":
			req.Items = append(req.Items, engine.RangeItem(start, end))
		default:
			return engine.Request{}, fmt.Errorf("invalid commit argument %q", arg)
		}
	}
	for _, s := range skip {
		if s = strings.TrimSpace(s); s != "" {
			req.Skip = append(req.Skip, s)
		}
	}
	if req.IsEmpty() {
		return engine.Request{}, fmt.Errorf("no commits to pick")
	}
	return req, nil
}
