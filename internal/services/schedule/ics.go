package schedule

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

const calendarProductID = "-//slotfinder//free slots//EN"

// Calendar renders the slots as an iCalendar feed, one transparent VEVENT
// per slot so subscribing calendars do not show them as busy
func (result *FreeSlotsResult) Calendar(now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName("Free slots")
	cal.SetXWRTimezone(result.Timezone)

	for _, slot := range result.Slots {
		start := slot.Start.UTC()
		event := cal.AddEvent(fmt.Sprintf("slot-%d@slotfinder", start.Unix()))
		event.SetDtStampTime(now.UTC())
		event.SetStartAt(start)
		event.SetEndAt(slot.End.UTC())
		event.SetSummary("Free slot")
		event.SetDescription(fmt.Sprintf("%d free minutes", slot.Minutes()))
		event.SetTimeTransparency(ics.TransparencyTransparent)
	}

	return cal.Serialize()
}
