package inspector

import (
	"fmt"
	"strings"
)

type DeviceClass string

const (
	DeviceAuto       DeviceClass = "auto"
	DeviceLarge      DeviceClass = "large"
	DeviceWearable   DeviceClass = "wearable"
	DeviceLivingRoom DeviceClass = "living-room"
)

// DeviceClasses lists the concrete classes in cycling order.
var DeviceClasses = []DeviceClass{DeviceLarge, DeviceWearable, DeviceLivingRoom}

var deviceAliases = map[string]DeviceClass{
	"":            DeviceAuto,
	"auto":        DeviceAuto,
	"large":       DeviceLarge,
	"desktop":     DeviceLarge,
	"phone":       DeviceLarge,
	"wearable":    DeviceWearable,
	"watch":       DeviceWearable,
	"compact":     DeviceWearable,
	"living-room": DeviceLivingRoom,
	"livingroom":  DeviceLivingRoom,
	"tv":          DeviceLivingRoom,
}

func ParseDeviceClass(s string) (DeviceClass, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "_", "-")
	if class, ok := deviceAliases[key]; ok {
		return class, nil
	}
	return "", fmt.Errorf("unknown device class %q", s)
}

// Next returns the class after c in DeviceClasses.
func (c DeviceClass) Next() DeviceClass {
	for i, class := range DeviceClasses {
		if class == c {
			return DeviceClasses[(i+1)%len(DeviceClasses)]
		}
	}
	return DeviceLarge
}

const (
	wearableMaxWidth   = 60
	livingRoomMinWidth = 200
	livingRoomMinRows  = 50
)

// Detect maps terminal dimensions to a device class.
func Detect(width, height int) DeviceClass {
	switch {
	case width > 0 && width < wearableMaxWidth:
		return DeviceWearable
	case width >= livingRoomMinWidth && height >= livingRoomMinRows:
		return DeviceLivingRoom
	default:
		return DeviceLarge
	}
}

// Resolve turns auto into a concrete class for the given dimensions.
func (c DeviceClass) Resolve(width, height int) DeviceClass {
	if c == DeviceAuto || c == "" {
		return Detect(width, height)
	}
	return c
}

// Layout holds the spacing a renderer places between rows. Values are in
// blank lines.
type Layout struct {
	TitleGap   int
	SectionGap int
}

func DefaultLayout(c DeviceClass) Layout {
	switch c {
	case DeviceWearable:
		return Layout{TitleGap: 1, SectionGap: 2}
	case DeviceLivingRoom:
		return Layout{TitleGap: 2, SectionGap: 1}
	default:
		return Layout{TitleGap: 1, SectionGap: 1}
	}
}

func (l Layout) normalized() Layout {
	if l.TitleGap < 0 {
		l.TitleGap = 0
	}
	if l.SectionGap < 0 {
		l.SectionGap = 0
	}
	return l
}

// ViewState is renderer-local state that never touches the view-model.
type ViewState struct {
	ShowingCurrentRequest bool
}

type Renderer interface {
	Class() DeviceClass
	Layout() Layout
	Render(s Snapshot, vs ViewState) Tree
}

// ForClass returns the renderer for class c laid out with l. Auto and unknown
// classes fall back to the large-screen renderer.
func ForClass(c DeviceClass, l Layout) Renderer {
	l = l.normalized()
	switch c {
	case DeviceWearable:
		return wearableRenderer{layout: l}
	case DeviceLivingRoom:
		return livingRoomRenderer{layout: l}
	default:
		return largeRenderer{layout: l}
	}
}
