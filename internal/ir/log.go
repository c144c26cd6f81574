package ir

import (
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("strata.ir")
