// Package registry provides a generic plugin registry.
//
// A Registry maps names to plugins for one entry point group. Plugins are registered explicitly
// or discovered lazily through an entrypoint.Source the first time they are enabled. One plugin
// is active at a time, optionally bound to options:
//
//	renderers := registry.New[registry.Invoker]("renderers",
//		registry.WithGlobalSettings(registry.Options{"embed_options": nil}),
//	)
//	if _, err := renderers.Register("text", textRenderer); err != nil {
//		return err
//	}
//	if _, err := renderers.Enable(ctx, "text", registry.Options{"width": 80}); err != nil {
//		return err
//	}
//	bound, err := renderers.Get()
//
// Enable returns an Enabler that restores the previous state of the registry. Use it with defer,
// or use Registry.With, to switch plugins for the duration of a call.
package registry
