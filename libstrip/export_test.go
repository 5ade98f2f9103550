package libstrip

// MarkUsed exposes markUsed to the external test package.
func (g *Graph) MarkUsed(ti int32) {
	g.markUsed(ti)
}
