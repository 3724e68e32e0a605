package stacktrace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternalPaths(t *testing.T) {
	stack := []byte(`goroutine 1 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
github.com/shandysiswandi/otpvault/internal/credential/usecase.(*Usecase).Create(...)
	/src/internal/credential/usecase/create.go:42 +0x1a
net/http.HandlerFunc.ServeHTTP(...)
	/usr/local/go/src/net/http/server.go:2220 +0x29
github.com/shandysiswandi/otpvault/internal/pkg/router.middlewareRecoverer.func1()
	/src/internal/pkg/router/middleware_recover.go:30`)

	assert.Equal(t, []string{
		"internal/credential/usecase/create.go:42",
		"internal/pkg/router/middleware_recover.go:30",
	}, InternalPaths(stack))

	assert.Empty(t, InternalPaths(nil))
}
