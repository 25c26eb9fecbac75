package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"strconv"
	"syscall"

	"github.com/conneroisu/mdview/internal/errors"
	"github.com/conneroisu/mdview/internal/logging"
)

// Listen binds host on the first free port in [minPort, maxPort]. A port
// already in use moves on to the next one; any other bind error is returned
// immediately.
func Listen(ctx context.Context, host string, minPort, maxPort int, logger logging.Logger) (net.Listener, error) {
	var lc net.ListenConfig

	for port := minPort; port <= maxPort; port++ {
		addr := net.JoinHostPort(host, strconv.Itoa(port))
		ln, err := lc.Listen(ctx, "tcp", addr)
		if err == nil {
			return ln, nil
		}
		if !stderrors.Is(err, syscall.EADDRINUSE) {
			return nil, errors.NewInternalError(errors.ErrCodeBindFailed,
				fmt.Sprintf("cannot bind %s", addr), err)
		}
		logger.Warn(ctx, err, "port in use, continuing", "port", port)
	}

	return nil, errors.NewInternalError(errors.ErrCodeNoFreePort,
		fmt.Sprintf("no free port on %s in range %d-%d", host, minPort, maxPort), nil)
}
