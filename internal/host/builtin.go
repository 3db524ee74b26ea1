package host

import (
	"github.com/jmylchreest/isle/internal/abi"
	"github.com/jmylchreest/isle/internal/layout"
	"github.com/jmylchreest/isle/internal/modules/clock"
	"github.com/jmylchreest/isle/internal/modules/notifications"
)

// RegisterBuiltins adds the modules and layout managers compiled into isled.
func RegisterBuiltins(reg *abi.Registry) error {
	if err := reg.RegisterLayoutManager(layout.CarouselName, layout.NewCarousel); err != nil {
		return err
	}
	if err := reg.RegisterModule(clock.Name, clock.New); err != nil {
		return err
	}
	return reg.RegisterModule(notifications.Name, notifications.New)
}
