package convention

// Context is the pipeline state shared by the plugins of one chain. There is
// one Context per kind, reused across firings and reset at the start of each.
//
// INVARIANT: once Stopped reports true no further plugin of the chain runs.
type Context struct {
	kind   Kind
	result any
	stop   bool
}

func newContext(k Kind) *Context {
	return &Context{kind: k}
}

// Kind returns the event kind this context serves.
func (c *Context) Kind() Kind {
	return c.kind
}

// Result returns the current candidate result.
func (c *Context) Result() any {
	return c.result
}

// Stopped reports whether a plugin requested the chain to stop.
func (c *Context) Stopped() bool {
	return c.stop
}

// StopProcessing ends the chain after the current plugin, keeping the
// current candidate as the result.
func (c *Context) StopProcessing() {
	c.stop = true
}

// StopWith ends the chain after the current plugin with v as the result.
// A nil v signals that the subject is no longer in the model.
func (c *Context) StopWith(v any) {
	c.stop = true
	c.result = v
}

func (c *Context) reset(initial any) {
	c.result = initial
	c.stop = false
}
