package trial

import "go.uber.org/fx"

// Module exposes the trial service via Fx.
var Module = fx.Options(
	fx.Provide(NewService),
)
