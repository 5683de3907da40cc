package abuse

import "go.uber.org/fx"

// Module exposes the abuse heuristics service via Fx.
var Module = fx.Options(
	fx.Provide(New),
)
