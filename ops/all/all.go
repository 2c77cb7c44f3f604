// Package all registers every built-in operator. Import it for side effects:
//
//	import _ "github.com/vk/eventflow/ops/all"
package all

import (
	_ "github.com/vk/eventflow/ops/binop"
	_ "github.com/vk/eventflow/ops/calendar"
	_ "github.com/vk/eventflow/ops/feature"
	_ "github.com/vk/eventflow/ops/sampling"
	_ "github.com/vk/eventflow/ops/smath"
	_ "github.com/vk/eventflow/ops/window"
)
