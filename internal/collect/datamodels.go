package collect

import "github.com/codekg/graphbuild/internal/graph"

// DataModels is phase (g): schema/ORM declarations. Go structs and Rails
// ActiveRecord::Schema create_table blocks are the canonical cases,
// grounded on go.rs's and ruby.rs's data_model_query.
func (c *Context) DataModels() []graph.NodeData {
	hooks := c.Adapter.Hooks()
	if hooks.DataModelPathFilter != nil && !hooks.DataModelPathFilter(c.File) {
		return nil
	}
	var out []graph.NodeData
	for _, m := range c.matches("datamodels") {
		nameCap, ok := m.Get("data-model-name")
		if !ok {
			continue
		}
		name := trimQuotes(nameCap.Text(c.Src))
		data := nodeData(name, c.File, nameCap.StartLine(), nameCap.EndLine(), "")
		node := c.Backend.AddNodeWithParent(graph.KindDataModel, data, graph.KindFile, c.File)
		out = append(out, node)
	}
	return out
}

// LinkDataModelAssociations wires Class->DataModel Contains edges for
// classes whose body references a data model by name (Go structs
// embedding a DB row type, Rails models named after their table), using
// the adapter's DataModelWithinFinder hook.
func (c *Context) LinkDataModelAssociations(classes []graph.NodeData, models []graph.NodeData) {
	hooks := c.Adapter.Hooks()
	if hooks.DataModelWithinFinder == nil {
		return
	}
	byName := map[string]graph.NodeData{}
	for _, dm := range models {
		byName[dm.Name] = dm
	}
	for _, cls := range classes {
		for _, ref := range hooks.DataModelWithinFinder([]byte(cls.Body)) {
			if dm, ok := byName[ref]; ok {
				c.Backend.AddEdge(graph.Contains(graph.KindClass, cls, graph.KindDataModel, dm))
			}
		}
	}
}
