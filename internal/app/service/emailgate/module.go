package emailgate

import "go.uber.org/fx"

// Module exposes the email gate via Fx.
var Module = fx.Options(
	fx.Provide(New),
)
