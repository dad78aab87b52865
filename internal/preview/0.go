package preview

import "github.com/google/wire"

var Provider = wire.NewSet(New, wire.Bind(new(Fetcher), new(*Runner)))
