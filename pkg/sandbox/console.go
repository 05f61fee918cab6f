package sandbox

import (
	"strings"
	"sync"

	"github.com/dop251/goja"
)

const truncatedMark = "...[output truncated]"

// console collects output written through the guest console
// object. Writes beyond limit bytes are dropped.
type console struct {
	mu        sync.Mutex
	buf       strings.Builder
	limit     int
	truncated bool
}

func newConsole(limit int) *console {
	return &console{limit: limit}
}

func (c *console) write(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.truncated {
		return
	}
	if c.limit > 0 && c.buf.Len()+len(line)+1 > c.limit {
		c.buf.WriteString(truncatedMark)
		c.buf.WriteByte('\n')
		c.truncated = true
		return
	}
	c.buf.WriteString(line)
	c.buf.WriteByte('\n')
}

func (c *console) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

func (c *console) install(in *Instance) error {
	obj := in.vm.NewObject()
	for _, name := range []string{
		"log", "info", "warn", "error", "debug",
	} {
		prefix := ""
		if name == "warn" || name == "error" {
			prefix = strings.ToUpper(name) + ": "
		}
		if err := obj.Set(name, c.writer(in, prefix)); err != nil {
			return err
		}
	}
	return in.vm.Set("console", obj)
}

func (c *console) writer(
	in *Instance, prefix string,
) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			if _, isObj := arg.(*goja.Object); !isObj {
				if s, ok := arg.Export().(string); ok {
					parts[i] = s
					continue
				}
			}
			parts[i] = in.display(arg)
		}
		c.write(prefix + strings.Join(parts, " "))
		return goja.Undefined()
	}
}
