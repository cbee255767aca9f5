package main

import (
	"context"
	"errors"
	"flag"

	"github.com/policyaudit/policyaudit/pkg/audit"
	"github.com/policyaudit/policyaudit/pkg/config"
	"github.com/policyaudit/policyaudit/pkg/defaults"
	"github.com/policyaudit/policyaudit/pkg/fortigate"
	"github.com/policyaudit/policyaudit/pkg/ui"
)

// errUsage marks invalid command lines.
var errUsage = errors.New("usage")

// exitCode prints err and maps it to a process exit code:
// configuration and usage errors 2, transport errors 3, anything else 4.
func exitCode(err error) int {
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return defaults.ExitSuccess
	}
	ui.PrintError(err.Error())
	return classify(err)
}

func classify(err error) int {
	var apiErr *fortigate.APIError
	switch {
	case errors.Is(err, errUsage),
		errors.Is(err, config.ErrMissingRequired),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, audit.ErrInput):
		return defaults.ExitUserError
	case errors.As(err, &apiErr),
		errors.Is(err, fortigate.ErrTransport),
		errors.Is(err, fortigate.ErrInvalidResponse),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return defaults.ExitNetworkError
	default:
		return defaults.ExitInternalError
	}
}
