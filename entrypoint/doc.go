// Package entrypoint provides the discovery side of plugin registries.
//
// An entry point is a named reference that is published into a group and that can be loaded
// into the object it references. Registries ask a Source for all entry points of their group and
// load the one matching a requested plugin name.
//
// A Catalog is a process-wide table filled by packages from their init functions.
// The Default catalog is what registries use when nothing else is configured:
//
//	func init() {
//		entrypoint.MustRegisterValue("altair.vegalite.v5.renderer", "svg", svg.Render)
//	}
//
// A Directory walks plugin directories for plugin.yaml manifests. A manifest declares entry
// points per group. Each entry point either references a symbol provided to a Catalog or
// an executable that is run as an ExecPlugin:
//
//	name: example-renderers
//	entryPoints:
//	  altair.vegalite.v5.renderer:
//	    - name: svg
//	      value: example.com/renderers/svg:Render
//	    - name: png
//	      command: ["bin/png-renderer", "--fast"]
//
// Static is a fixed list, mostly useful in tests. Multi combines several sources into one.
package entrypoint
