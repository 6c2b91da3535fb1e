// Package component defines the lifecycle contract shared by long-lived
// resources in poolstream, and a Registry that starts them in order and
// stops them in reverse.
//
// A *workpool.Pool is a Component: register the pools an application owns
// and let the registry shut them down together.
//
//	reg := component.NewRegistry()
//	_ = reg.Register(ioPool)
//	_ = reg.Register(cpuPool)
//	defer reg.StopAll(ctx)
package component
