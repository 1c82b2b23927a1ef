package models

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var CRAWL_SET_INDEXES = []int{1, 2, 3}

// CrawlTaskSequence is the fixed claim order of task ids inside each set.
var CrawlTaskSequence = map[int][]string{
	1: {"ct_free", "ct1", "ct2"},
	2: {"ct_s2_free", "ct_s2_1", "ct_s2_2"},
	3: {"ct_s3_free", "ct_s3_1", "ct_s3_2"},
}

func IsCrawlSetIndex(setIndex int) bool {
	_, ok := CrawlTaskSequence[setIndex]
	return ok
}

func IsSequenceTask(setIndex int, taskId string) bool {
	for _, id := range CrawlTaskSequence[setIndex] {
		if id == taskId {
			return true
		}
	}
	return false
}

type CrawlTask struct {
	SetIndex int             `db:"set_index" json:"set_index"`
	Id       string          `db:"id" json:"id"`
	Name     string          `db:"name" json:"name"`
	ImageSrc string          `db:"image_src" json:"image_src"`
	Price    decimal.Decimal `db:"price" json:"price"`
	Income   decimal.Decimal `db:"income" json:"income"`
}

// TaskOverride replaces template fields; invalid (null) fields are left to lower layers.
type TaskOverride struct {
	Name   string              `json:"name,omitempty"`
	Price  decimal.NullDecimal `json:"price"`
	Income decimal.NullDecimal `json:"income"`
}

func (o TaskOverride) IsEmpty() bool {
	return o.Name == "" && !o.Price.Valid && !o.Income.Valid
}

type CompletedTask struct {
	TaskId      string    `json:"task_id"`
	CompletedAt time.Time `json:"completed_at"`
}

type CrawlSet struct {
	Enabled        bool                    `json:"enabled"`
	ActiveTaskIds  []string                `json:"active_task_ids"`
	CompletedTasks []CompletedTask         `json:"completed_tasks"`
	TaskOverrides  map[string]TaskOverride `json:"task_overrides,omitempty"`
}

func (s *CrawlSet) IsActive(taskId string) bool {
	for _, id := range s.ActiveTaskIds {
		if id == taskId {
			return true
		}
	}
	return false
}

func (s *CrawlSet) IsCompleted(taskId string) bool {
	for _, c := range s.CompletedTasks {
		if c.TaskId == taskId {
			return true
		}
	}
	return false
}

// NextUnused returns the first id of the sequence that is neither active nor completed.
func (s *CrawlSet) NextUnused(sequence []string) (string, bool) {
	for _, id := range sequence {
		if !s.IsActive(id) && !s.IsCompleted(id) {
			return id, true
		}
	}
	return "", false
}

func (s *CrawlSet) Deactivate(taskId string) {
	kept := s.ActiveTaskIds[:0]
	for _, id := range s.ActiveTaskIds {
		if id != taskId {
			kept = append(kept, id)
		}
	}
	s.ActiveTaskIds = kept
}

func (s CrawlSet) Clone() CrawlSet {
	c := CrawlSet{
		Enabled:        s.Enabled,
		ActiveTaskIds:  append([]string{}, s.ActiveTaskIds...),
		CompletedTasks: append([]CompletedTask{}, s.CompletedTasks...),
	}
	if s.TaskOverrides != nil {
		c.TaskOverrides = make(map[string]TaskOverride, len(s.TaskOverrides))
		for k, v := range s.TaskOverrides {
			c.TaskOverrides[k] = v
		}
	}
	return c
}

type CrawlSets map[int]CrawlSet

// NewCrawlSets creates the three disabled, empty sets of a new user.
func NewCrawlSets() CrawlSets {
	sets := make(CrawlSets, len(CRAWL_SET_INDEXES))
	for _, i := range CRAWL_SET_INDEXES {
		sets[i] = CrawlSet{ActiveTaskIds: []string{}, CompletedTasks: []CompletedTask{}}
	}
	return sets
}

func (c CrawlSets) Clone() CrawlSets {
	if c == nil {
		return nil
	}
	res := make(CrawlSets, len(c))
	for k, v := range c {
		res[k] = v.Clone()
	}
	return res
}

// ActiveIndex is the lowest enabled set index, or 0 when crawling is off.
func (c CrawlSets) ActiveIndex() int {
	indexes := make([]int, 0, len(c))
	for i, s := range c {
		if s.Enabled {
			indexes = append(indexes, i)
		}
	}
	if len(indexes) == 0 {
		return 0
	}
	sort.Ints(indexes)
	return indexes[0]
}

func (c CrawlSets) AnyEnabled() bool {
	return c.ActiveIndex() != 0
}

// VipCrawlOverride is a tier-wide override of one template task.
type VipCrawlOverride struct {
	VipLevel string `db:"vip_level" json:"vip_level"`
	SetIndex int    `db:"set_index" json:"set_index"`
	TaskId   string `db:"task_id" json:"task_id"`
	TaskOverride
}

// ResolveEffective layers template, tier override and user override, last valid field wins.
func ResolveEffective(base CrawlTask, tier *TaskOverride, user *TaskOverride) CrawlTask {
	eff := base
	for _, layer := range []*TaskOverride{tier, user} {
		if layer == nil {
			continue
		}
		if layer.Name != "" {
			eff.Name = layer.Name
		}
		if layer.Price.Valid {
			eff.Price = layer.Price.Decimal
		}
		if layer.Income.Valid {
			eff.Income = layer.Income.Decimal
		}
	}
	return eff
}

// CrawlOverview is what a user sees for one set.
type CrawlOverview struct {
	SetIndex   int              `json:"set_index"`
	Enabled    bool             `json:"enabled"`
	InProgress []CrawlTask      `json:"in_progress"`
	Completed  []CompletedCrawl `json:"completed"`
	Finished   bool             `json:"finished"`
}

type CompletedCrawl struct {
	Task        CrawlTask `json:"task"`
	CompletedAt time.Time `json:"completed_at"`
}
