package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"taskhub/internal/metrics"
	"taskhub/internal/models"
	"taskhub/internal/repositories"

	"github.com/shopspring/decimal"
)

type CrawlService struct {
	store repositories.Store
	now   Clock
}

func NewCrawlService(store repositories.Store, now Clock) *CrawlService {
	return &CrawlService{
		store: store,
		now:   defaultClock(now),
	}
}

// CrawlCompletion is the result of a completed crawl task.
type CrawlCompletion struct {
	Task           models.CrawlTask `json:"task"`
	FromWithdrawal decimal.Decimal  `json:"from_withdrawal"`
	FromMain       decimal.Decimal  `json:"from_main"`
	Credited       decimal.Decimal  `json:"credited"`
	User           *models.User     `json:"-"`
}

// tierOverride finds the tier layer for one task in a preloaded override list.
func tierOverride(overrides []models.VipCrawlOverride, setIndex int, taskId string) *models.TaskOverride {
	for i := range overrides {
		if overrides[i].SetIndex == setIndex && overrides[i].TaskId == taskId {
			return &overrides[i].TaskOverride
		}
	}
	return nil
}

func userOverride(user *models.User, setIndex int, taskId string) *models.TaskOverride {
	set, ok := user.CrawlSets[setIndex]
	if !ok {
		return nil
	}
	o, ok := set.TaskOverrides[taskId]
	if !ok {
		return nil
	}
	return &o
}

// effectiveTask layers template, tier override and user override for one task.
func effectiveTask(tx repositories.Tx, user *models.User, setIndex int, taskId string) (*models.CrawlTask, error) {
	base, err := tx.CrawlTask(setIndex, taskId)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, models.ErrTaskOrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load crawl task %d/%s: %w", setIndex, taskId, err)
	}
	overrides, err := tx.VipCrawlOverrides(user.VipLevel)
	if err != nil {
		return nil, err
	}
	eff := models.ResolveEffective(*base, tierOverride(overrides, setIndex, taskId), userOverride(user, setIndex, taskId))
	return &eff, nil
}

func crawlSet(user *models.User, setIndex int) (models.CrawlSet, error) {
	if !models.IsCrawlSetIndex(setIndex) {
		return models.CrawlSet{}, models.ErrInvalidCrawlSet
	}
	if user.CrawlSets == nil {
		user.CrawlSets = models.NewCrawlSets()
	}
	return user.CrawlSets[setIndex], nil
}

// ActiveCrawlSet is the set a user is currently crawling, 0 when the daily task applies.
func ActiveCrawlSet(user *models.User) int {
	return user.CrawlSets.ActiveIndex()
}

// Claim activates the next unused task of the set. One task per set may be active at a time.
func (s *CrawlService) Claim(ctx context.Context, userId int64, setIndex int) (*models.CrawlTask, error) {
	var task *models.CrawlTask
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		user, err := loadUser(tx, userId)
		if err != nil {
			return err
		}
		set, err := crawlSet(user, setIndex)
		if err != nil {
			return err
		}
		if !set.Enabled {
			return models.ErrCrawlSetDisabled
		}
		if len(set.ActiveTaskIds) > 0 {
			return models.ErrTaskInProgress
		}
		next, ok := set.NextUnused(models.CrawlTaskSequence[setIndex])
		if !ok {
			return models.ErrNoTasksAvailable
		}
		task, err = effectiveTask(tx, user, setIndex, next)
		if err != nil {
			return err
		}
		set.ActiveTaskIds = append(set.ActiveTaskIds, next)
		user.CrawlSets[setIndex] = set
		return saveUser(tx, user)
	})
	if err != nil {
		return nil, observe("crawl.claim", err)
	}
	log.Debugf("User %d claimed crawl task %s in set %d", userId, task.Id, setIndex)
	return task, observe("crawl.claim", nil)
}

// Initialize activates the free first task of a freshly enabled set. It reports whether anything changed.
func (s *CrawlService) Initialize(ctx context.Context, userId int64, setIndex int) (bool, error) {
	changed := false
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		user, err := loadUser(tx, userId)
		if err != nil {
			return err
		}
		set, err := crawlSet(user, setIndex)
		if err != nil {
			return err
		}
		if !set.Enabled || len(set.ActiveTaskIds) > 0 || len(set.CompletedTasks) > 0 {
			return nil
		}
		set.ActiveTaskIds = []string{models.CrawlTaskSequence[setIndex][0]}
		user.CrawlSets[setIndex] = set
		changed = true
		return saveUser(tx, user)
	})
	return changed, err
}

// Complete pays for an active task from the withdrawal balance first and
// main for the rest, then returns price plus income to the withdrawal balance.
func (s *CrawlService) Complete(ctx context.Context, userId int64, setIndex int, taskId string) (*CrawlCompletion, error) {
	var res *CrawlCompletion
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		user, err := loadUser(tx, userId)
		if errors.Is(err, models.ErrUserNotFound) {
			return models.ErrTaskOrUserNotFound
		}
		if err != nil {
			return err
		}
		set, err := crawlSet(user, setIndex)
		if err != nil {
			return models.ErrTaskOrUserNotFound
		}
		task, err := effectiveTask(tx, user, setIndex, taskId)
		if err != nil {
			return err
		}
		if !set.IsActive(taskId) {
			return models.ErrTaskNotActive
		}
		if user.TotalBalance().LessThan(task.Price) {
			return models.ErrInsufficientBalance
		}

		fromWithdrawal := decimal.Min(task.Price, user.WithdrawalBalance)
		fromMain := task.Price.Sub(fromWithdrawal)
		at := s.now()

		if err := postEntry(tx, user, models.ACCOUNT_WITHDRAWAL, fromWithdrawal.Neg(), models.TX_CRAWL_TASK_PURCHASE, task.Name, at); err != nil {
			return err
		}
		if err := postEntry(tx, user, models.ACCOUNT_MAIN, fromMain.Neg(), models.TX_CRAWL_TASK_PURCHASE, task.Name, at); err != nil {
			return err
		}
		credited := task.Price.Add(task.Income)
		if err := postEntry(tx, user, models.ACCOUNT_WITHDRAWAL, credited, models.TX_TASK_INCOME, task.Name, at); err != nil {
			return err
		}
		user.TaskCommission = user.TaskCommission.Add(task.Income)

		set.Deactivate(taskId)
		set.CompletedTasks = append(set.CompletedTasks, models.CompletedTask{TaskId: taskId, CompletedAt: at})
		user.CrawlSets[setIndex] = set
		if err := saveUser(tx, user); err != nil {
			return err
		}

		res = &CrawlCompletion{
			Task:           *task,
			FromWithdrawal: fromWithdrawal,
			FromMain:       fromMain,
			Credited:       credited,
			User:           user,
		}
		return nil
	})
	if err != nil {
		return nil, observe("crawl.complete", err)
	}
	metrics.AddLedgerVolume(models.TX_CRAWL_TASK_PURCHASE, res.Task.Price)
	metrics.AddLedgerVolume(models.TX_TASK_INCOME, res.Credited)
	log.Infof("User %d completed crawl task %s (price %s, income %s)", userId, taskId, res.Task.Price, res.Task.Income)
	return res, observe("crawl.complete", nil)
}

// GetTaskForUser returns the effective task as the user would see it.
func (s *CrawlService) GetTaskForUser(ctx context.Context, userId int64, setIndex int, taskId string) (*models.CrawlTask, error) {
	var task *models.CrawlTask
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		user, err := loadUser(tx, userId)
		if err != nil {
			return err
		}
		task, err = effectiveTask(tx, user, setIndex, taskId)
		return err
	})
	return task, err
}

// Overview lists the in-progress and completed tasks of a set, completed newest first.
func (s *CrawlService) Overview(ctx context.Context, userId int64, setIndex int) (*models.CrawlOverview, error) {
	var res *models.CrawlOverview
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		user, err := loadUser(tx, userId)
		if err != nil {
			return err
		}
		set, err := crawlSet(user, setIndex)
		if err != nil {
			return err
		}

		res = &models.CrawlOverview{
			SetIndex:   setIndex,
			Enabled:    set.Enabled,
			InProgress: []models.CrawlTask{},
			Completed:  []models.CompletedCrawl{},
		}
		for _, id := range set.ActiveTaskIds {
			task, err := effectiveTask(tx, user, setIndex, id)
			if err != nil {
				return err
			}
			res.InProgress = append(res.InProgress, *task)
		}
		for _, c := range set.CompletedTasks {
			task, err := effectiveTask(tx, user, setIndex, c.TaskId)
			if err != nil {
				return err
			}
			res.Completed = append(res.Completed, models.CompletedCrawl{Task: *task, CompletedAt: c.CompletedAt})
		}
		sort.SliceStable(res.Completed, func(i, j int) bool {
			return res.Completed[i].CompletedAt.After(res.Completed[j].CompletedAt)
		})

		_, unused := set.NextUnused(models.CrawlTaskSequence[setIndex])
		res.Finished = !unused && len(set.ActiveTaskIds) == 0
		return nil
	})
	return res, err
}

// CrawlConfig is an operator edit of a user's crawl sets; absent keys are left alone.
type CrawlConfig struct {
	Enabled   map[int]bool                           `json:"enabled"`
	Overrides map[int]map[string]models.TaskOverride `json:"overrides"`
}

// ConfigureUser switches sets on or off and replaces per-task overrides of a user.
// An empty override removes it.
func (s *CrawlService) ConfigureUser(ctx context.Context, userId int64, cfg CrawlConfig) (*models.User, error) {
	var user *models.User
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		var err error
		user, err = loadUser(tx, userId)
		if err != nil {
			return err
		}
		for setIndex, enabled := range cfg.Enabled {
			set, err := crawlSet(user, setIndex)
			if err != nil {
				return err
			}
			set.Enabled = enabled
			user.CrawlSets[setIndex] = set
		}
		for setIndex, overrides := range cfg.Overrides {
			set, err := crawlSet(user, setIndex)
			if err != nil {
				return err
			}
			for taskId, o := range overrides {
				if !models.IsSequenceTask(setIndex, taskId) {
					return models.ErrTaskOrUserNotFound
				}
				if err := validOverride(o); err != nil {
					return err
				}
				if set.TaskOverrides == nil {
					set.TaskOverrides = map[string]models.TaskOverride{}
				}
				if o.IsEmpty() {
					delete(set.TaskOverrides, taskId)
				} else {
					set.TaskOverrides[taskId] = o
				}
			}
			user.CrawlSets[setIndex] = set
		}
		return saveUser(tx, user)
	})
	if err != nil {
		return nil, observe("admin.configure_crawl", err)
	}
	return user, observe("admin.configure_crawl", nil)
}

func validOverride(o models.TaskOverride) error {
	if o.Price.Valid && o.Price.Decimal.IsNegative() {
		return models.ErrInvalidAmount
	}
	if o.Income.Valid && o.Income.Decimal.IsNegative() {
		return models.ErrInvalidAmount
	}
	return nil
}

// ResetSet clears progress of one set and keeps the enable flag and overrides.
func (s *CrawlService) ResetSet(ctx context.Context, userId int64, setIndex int) error {
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		user, err := loadUser(tx, userId)
		if err != nil {
			return err
		}
		set, err := crawlSet(user, setIndex)
		if err != nil {
			return err
		}
		set.ActiveTaskIds = []string{}
		set.CompletedTasks = []models.CompletedTask{}
		user.CrawlSets[setIndex] = set
		return saveUser(tx, user)
	})
	return observe("admin.reset_crawl", err)
}

// UpdateBaseTask edits a template task; unset fields keep their value.
func (s *CrawlService) UpdateBaseTask(ctx context.Context, setIndex int, taskId string, o models.TaskOverride) (*models.CrawlTask, error) {
	if err := validOverride(o); err != nil {
		return nil, err
	}
	var task *models.CrawlTask
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		var err error
		task, err = tx.CrawlTask(setIndex, taskId)
		if errors.Is(err, repositories.ErrNotFound) {
			return models.ErrTaskOrUserNotFound
		}
		if err != nil {
			return err
		}
		eff := models.ResolveEffective(*task, &o, nil)
		task = &eff
		return tx.SaveCrawlTask(task)
	})
	if err != nil {
		return nil, observe("admin.update_crawl_task", err)
	}
	return task, observe("admin.update_crawl_task", nil)
}

// BaseTasks returns the templates of every set in sequence order.
func (s *CrawlService) BaseTasks(ctx context.Context) (map[int][]models.CrawlTask, error) {
	res := map[int][]models.CrawlTask{}
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		for _, i := range models.CRAWL_SET_INDEXES {
			tasks, err := tx.CrawlTasks(i)
			if err != nil {
				return err
			}
			res[i] = tasks
		}
		return nil
	})
	return res, err
}

// SetVipOverrides replaces tier overrides of the given tasks of one set. An empty override removes it.
func (s *CrawlService) SetVipOverrides(ctx context.Context, vipLevel string, setIndex int, overrides map[string]models.TaskOverride) error {
	if !models.IsCrawlSetIndex(setIndex) {
		return models.ErrInvalidCrawlSet
	}
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		levels, err := tx.VipLevels()
		if err != nil {
			return err
		}
		if models.LadderIndex(levels, vipLevel) < 0 {
			return models.ErrVipNotFound
		}
		for taskId, o := range overrides {
			if !models.IsSequenceTask(setIndex, taskId) {
				return models.ErrTaskOrUserNotFound
			}
			if err := validOverride(o); err != nil {
				return err
			}
			if o.IsEmpty() {
				if err := tx.DeleteVipCrawlOverride(vipLevel, setIndex, taskId); err != nil && !errors.Is(err, repositories.ErrNotFound) {
					return err
				}
				continue
			}
			if err := tx.SaveVipCrawlOverride(&models.VipCrawlOverride{
				VipLevel:     vipLevel,
				SetIndex:     setIndex,
				TaskId:       taskId,
				TaskOverride: o,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	return observe("admin.vip_crawl_overrides", err)
}

// EffectiveTasksForTier shows every template task with the tier layer applied.
func (s *CrawlService) EffectiveTasksForTier(ctx context.Context, vipLevel string) (map[int][]models.CrawlTask, error) {
	res := map[int][]models.CrawlTask{}
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		overrides, err := tx.VipCrawlOverrides(vipLevel)
		if err != nil {
			return err
		}
		for _, i := range models.CRAWL_SET_INDEXES {
			tasks, err := tx.CrawlTasks(i)
			if err != nil {
				return err
			}
			eff := make([]models.CrawlTask, 0, len(tasks))
			for _, t := range tasks {
				eff = append(eff, models.ResolveEffective(t, tierOverride(overrides, i, t.Id), nil))
			}
			res[i] = eff
		}
		return nil
	})
	return res, err
}
