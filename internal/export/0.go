package export

import "github.com/google/wire"

var Provider = wire.NewSet(New, NewFs)
