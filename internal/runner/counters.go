package runner

import (
	"fmt"

	"talentAgent/internal/workflow"
)

// Counters итоги по обработанным элементам. Каждый элемент увеличивает Seen и ровно одну корзину.
type Counters struct {
	Seen        int `json:"seen"`
	Succeeded   int `json:"succeeded"`
	AlreadyDone int `json:"already_done"`
	Skipped     int `json:"skipped"`
	Failed      int `json:"failed"`
	Unknown     int `json:"unknown"`
}

func (c *Counters) Record(o workflow.Outcome) {
	c.Seen++
	switch o {
	case workflow.Succeeded:
		c.Succeeded++
	case workflow.AlreadyDone:
		c.AlreadyDone++
	case workflow.Failed:
		c.Failed++
	default:
		c.Unknown++
	}
}

func (c *Counters) Skip() {
	c.Seen++
	c.Skipped++
}

func (c *Counters) Add(o Counters) {
	c.Seen += o.Seen
	c.Succeeded += o.Succeeded
	c.AlreadyDone += o.AlreadyDone
	c.Skipped += o.Skipped
	c.Failed += o.Failed
	c.Unknown += o.Unknown
}

// Failures элементы, закончившиеся неудачей или неопределённым итогом.
func (c Counters) Failures() int {
	return c.Failed + c.Unknown
}

func (c Counters) String() string {
	return fmt.Sprintf("seen=%d succeeded=%d already=%d skipped=%d failed=%d unknown=%d",
		c.Seen, c.Succeeded, c.AlreadyDone, c.Skipped, c.Failed, c.Unknown)
}
