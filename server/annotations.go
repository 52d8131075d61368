package server

// ToolAnnotations are behaviour hints shown to clients before they call a
// tool. Nil fields leave the MCP default in place.
type ToolAnnotations struct {
	Title           string `json:"title,omitempty"`
	ReadOnlyHint    *bool  `json:"readOnlyHint,omitempty"`
	DestructiveHint *bool  `json:"destructiveHint,omitempty"`
	IdempotentHint  *bool  `json:"idempotentHint,omitempty"`
	OpenWorldHint   *bool  `json:"openWorldHint,omitempty"`
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}

func (b *ToolBuilder) annotations() *ToolAnnotations {
	if b.tool.annotations == nil {
		b.tool.annotations = &ToolAnnotations{}
	}
	return b.tool.annotations
}

// Title sets a human-readable title.
func (b *ToolBuilder) Title(title string) *ToolBuilder {
	b.annotations().Title = title
	return b
}

// ReadOnly marks the tool as free of side effects.
func (b *ToolBuilder) ReadOnly() *ToolBuilder {
	a := b.annotations()
	a.ReadOnlyHint = Bool(true)
	a.DestructiveHint = Bool(false)
	return b
}

// Destructive marks the tool as able to remove or overwrite data.
func (b *ToolBuilder) Destructive() *ToolBuilder {
	a := b.annotations()
	a.ReadOnlyHint = Bool(false)
	a.DestructiveHint = Bool(true)
	return b
}

// Additive marks a writing tool that only ever adds data.
func (b *ToolBuilder) Additive() *ToolBuilder {
	a := b.annotations()
	a.ReadOnlyHint = Bool(false)
	a.DestructiveHint = Bool(false)
	return b
}

// Idempotent marks repeated calls with the same input as harmless.
func (b *ToolBuilder) Idempotent() *ToolBuilder {
	b.annotations().IdempotentHint = Bool(true)
	return b
}

// OpenWorld marks the tool as reaching systems outside the host.
func (b *ToolBuilder) OpenWorld() *ToolBuilder {
	b.annotations().OpenWorldHint = Bool(true)
	return b
}
