package repositories

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"taskhub/internal/models"

	"github.com/shopspring/decimal"
)

var errReadOnly = errors.New("write in read-only transaction")

type crawlKey struct {
	set int
	id  string
}

type overrideKey struct {
	vip  string
	set  int
	task string
}

type walletKey struct {
	currency string
	network  string
}

type sequences struct {
	user, transaction, recharge, withdrawal, submission, message int64
}

type memoryState struct {
	users        map[int64]models.User
	emails       map[string]int64
	codes        map[string]int64
	chats        map[int64]int64
	transactions []models.Transaction
	vipLevels    map[string]models.VipLevel
	crawlTasks   map[crawlKey]models.CrawlTask
	overrides    map[overrideKey]models.VipCrawlOverride
	recharges    map[int64]models.RechargeRequest
	withdrawals  map[int64]models.WithdrawalRequest
	activities   map[string]models.Activity
	submissions  map[int64]models.ActivitySubmission
	messages     map[int64]models.Message
	wallets      map[walletKey]models.WalletAddress
	settings     *models.PlatformSettings
	seq          sequences
}

// MemoryStore keeps every record in process memory. Transactions are
// serialized by one lock and write into overlays that are merged on success.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memoryState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: &memoryState{
			users:       map[int64]models.User{},
			emails:      map[string]int64{},
			codes:       map[string]int64{},
			chats:       map[int64]int64{},
			vipLevels:   map[string]models.VipLevel{},
			crawlTasks:  map[crawlKey]models.CrawlTask{},
			overrides:   map[overrideKey]models.VipCrawlOverride{},
			recharges:   map[int64]models.RechargeRequest{},
			withdrawals: map[int64]models.WithdrawalRequest{},
			activities:  map[string]models.Activity{},
			submissions: map[int64]models.ActivitySubmission{},
			messages:    map[int64]models.Message{},
			wallets:     map[walletKey]models.WalletAddress{},
		},
	}
}

func (s *MemoryStore) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := newMemoryTx(s.state, false)
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *MemoryStore) View(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(newMemoryTx(s.state, true))
}

type overlay[K comparable, V any] struct {
	base    map[K]V
	written map[K]V
	deleted map[K]struct{}
}

func newOverlay[K comparable, V any](base map[K]V) *overlay[K, V] {
	return &overlay[K, V]{base: base, written: map[K]V{}, deleted: map[K]struct{}{}}
}

func (o *overlay[K, V]) get(k K) (V, bool) {
	if v, ok := o.written[k]; ok {
		return v, true
	}
	if _, ok := o.deleted[k]; ok {
		var zero V
		return zero, false
	}
	v, ok := o.base[k]
	return v, ok
}

func (o *overlay[K, V]) put(k K, v V) {
	o.written[k] = v
	delete(o.deleted, k)
}

func (o *overlay[K, V]) del(k K) {
	delete(o.written, k)
	o.deleted[k] = struct{}{}
}

func (o *overlay[K, V]) values() []V {
	out := make([]V, 0, len(o.base)+len(o.written))
	for k, v := range o.base {
		if _, ok := o.written[k]; ok {
			continue
		}
		if _, ok := o.deleted[k]; ok {
			continue
		}
		out = append(out, v)
	}
	for _, v := range o.written {
		out = append(out, v)
	}
	return out
}

func (o *overlay[K, V]) commit() {
	for k := range o.deleted {
		delete(o.base, k)
	}
	for k, v := range o.written {
		o.base[k] = v
	}
}

type memoryTx struct {
	state    *memoryState
	readOnly bool

	users       *overlay[int64, models.User]
	emails      *overlay[string, int64]
	codes       *overlay[string, int64]
	chats       *overlay[int64, int64]
	vipLevels   *overlay[string, models.VipLevel]
	crawlTasks  *overlay[crawlKey, models.CrawlTask]
	overrides   *overlay[overrideKey, models.VipCrawlOverride]
	recharges   *overlay[int64, models.RechargeRequest]
	withdrawals *overlay[int64, models.WithdrawalRequest]
	activities  *overlay[string, models.Activity]
	submissions *overlay[int64, models.ActivitySubmission]
	messages    *overlay[int64, models.Message]
	wallets     *overlay[walletKey, models.WalletAddress]

	transactions []models.Transaction
	settings     *models.PlatformSettings
	seq          sequences
}

func newMemoryTx(st *memoryState, readOnly bool) *memoryTx {
	return &memoryTx{
		state:       st,
		readOnly:    readOnly,
		users:       newOverlay(st.users),
		emails:      newOverlay(st.emails),
		codes:       newOverlay(st.codes),
		chats:       newOverlay(st.chats),
		vipLevels:   newOverlay(st.vipLevels),
		crawlTasks:  newOverlay(st.crawlTasks),
		overrides:   newOverlay(st.overrides),
		recharges:   newOverlay(st.recharges),
		withdrawals: newOverlay(st.withdrawals),
		activities:  newOverlay(st.activities),
		submissions: newOverlay(st.submissions),
		messages:    newOverlay(st.messages),
		wallets:     newOverlay(st.wallets),
		settings:    st.settings,
		seq:         st.seq,
	}
}

func (t *memoryTx) commit() {
	t.users.commit()
	t.emails.commit()
	t.codes.commit()
	t.chats.commit()
	t.vipLevels.commit()
	t.crawlTasks.commit()
	t.overrides.commit()
	t.recharges.commit()
	t.withdrawals.commit()
	t.activities.commit()
	t.submissions.commit()
	t.messages.commit()
	t.wallets.commit()
	t.state.transactions = append(t.state.transactions, t.transactions...)
	t.state.settings = t.settings
	t.state.seq = t.seq
}

func (t *memoryTx) writable() error {
	if t.readOnly {
		return errReadOnly
	}
	return nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (t *memoryTx) UserById(id int64) (*models.User, error) {
	u, ok := t.users.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return u.Clone(), nil
}

func (t *memoryTx) userByIndex(id int64, ok bool) (*models.User, error) {
	if !ok {
		return nil, ErrNotFound
	}
	return t.UserById(id)
}

func (t *memoryTx) UserByEmail(email string) (*models.User, error) {
	return t.userByIndex(t.emails.get(emailKey(email)))
}

func (t *memoryTx) UserByInvitationCode(code string) (*models.User, error) {
	if code == "" {
		return nil, ErrNotFound
	}
	return t.userByIndex(t.codes.get(code))
}

func (t *memoryTx) UserByTelegramChat(chatId int64) (*models.User, error) {
	return t.userByIndex(t.chats.get(chatId))
}

func (t *memoryTx) sortedUsers() []models.User {
	users := t.users.values()
	sort.Slice(users, func(i, j int) bool { return users[i].UserId() < users[j].UserId() })
	return users
}

func (t *memoryTx) UsersInvitedBy(codes []string) ([]models.User, error) {
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		if c != "" {
			set[c] = struct{}{}
		}
	}
	res := []models.User{}
	if len(set) == 0 {
		return res, nil
	}
	for _, u := range t.sortedUsers() {
		if _, ok := set[u.InvitedBy]; ok {
			res = append(res, *u.Clone())
		}
	}
	return res, nil
}

func (t *memoryTx) FindUsers(query string, offset, limit int) ([]models.User, int, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	found := []models.User{}
	users := t.sortedUsers()
	for i := len(users) - 1; i >= 0; i-- {
		u := users[i]
		if q != "" &&
			!strings.Contains(strings.ToLower(u.Email), q) &&
			!strings.Contains(strings.ToLower(u.Phone), q) &&
			!strings.Contains(strings.ToLower(u.InvitationCode), q) &&
			!strings.Contains(u.IpAddress, q) {
			continue
		}
		found = append(found, *u.Clone())
	}
	return page(found, offset, limit), len(found), nil
}

func (t *memoryTx) UserIds() ([]int64, error) {
	users := t.sortedUsers()
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.UserId())
	}
	return ids, nil
}

func (t *memoryTx) checkUnique(user *models.User, selfId int64) error {
	if id, ok := t.emails.get(emailKey(user.Email)); ok && id != selfId {
		return ErrConflict
	}
	if id, ok := t.codes.get(user.InvitationCode); ok && id != selfId {
		return ErrConflict
	}
	if user.TelegramChatId.Valid {
		if id, ok := t.chats.get(user.TelegramChatId.Int64); ok && id != selfId {
			return ErrConflict
		}
	}
	return nil
}

func (t *memoryTx) index(user *models.User) {
	id := user.UserId()
	t.emails.put(emailKey(user.Email), id)
	t.codes.put(user.InvitationCode, id)
	if user.TelegramChatId.Valid {
		t.chats.put(user.TelegramChatId.Int64, id)
	}
}

func (t *memoryTx) CreateUser(user *models.User) error {
	if err := t.writable(); err != nil {
		return err
	}
	if err := t.checkUnique(user, 0); err != nil {
		return err
	}
	t.seq.user++
	user.Id.Int64, user.Id.Valid = t.seq.user, true
	t.users.put(user.UserId(), *user.Clone())
	t.index(user)
	return nil
}

func (t *memoryTx) UpdateUser(user *models.User) error {
	if err := t.writable(); err != nil {
		return err
	}
	old, ok := t.users.get(user.UserId())
	if !ok {
		return ErrNotFound
	}
	if err := t.checkUnique(user, user.UserId()); err != nil {
		return err
	}
	t.emails.del(emailKey(old.Email))
	t.codes.del(old.InvitationCode)
	if old.TelegramChatId.Valid {
		t.chats.del(old.TelegramChatId.Int64)
	}
	t.users.put(user.UserId(), *user.Clone())
	t.index(user)
	return nil
}

func (t *memoryTx) allTransactions() []models.Transaction {
	all := make([]models.Transaction, 0, len(t.state.transactions)+len(t.transactions))
	all = append(all, t.state.transactions...)
	return append(all, t.transactions...)
}

func (t *memoryTx) AddTransaction(tr *models.Transaction) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.seq.transaction++
	tr.Id = t.seq.transaction
	t.transactions = append(t.transactions, *tr)
	return nil
}

func (t *memoryTx) TransactionsByUser(userId int64, offset, limit int) ([]models.Transaction, int, error) {
	all := t.allTransactions()
	res := []models.Transaction{}
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].UserId == userId {
			res = append(res, all[i])
		}
	}
	return page(res, offset, limit), len(res), nil
}

func (t *memoryTx) LedgerSum(userId int64, account string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, tr := range t.allTransactions() {
		if tr.UserId == userId && tr.Account == account {
			sum = sum.Add(tr.Amount)
		}
	}
	return sum, nil
}

func (t *memoryTx) VipLevels() ([]models.VipLevel, error) {
	levels := t.vipLevels.values()
	sort.Slice(levels, func(i, j int) bool {
		if levels[i].Position != levels[j].Position {
			return levels[i].Position < levels[j].Position
		}
		return levels[i].Id < levels[j].Id
	})
	return levels, nil
}

func (t *memoryTx) SaveVipLevel(level *models.VipLevel) error {
	if err := t.writable(); err != nil {
		return err
	}
	for _, l := range t.vipLevels.values() {
		if l.Name == level.Name && l.Id != level.Id {
			return ErrConflict
		}
	}
	t.vipLevels.put(level.Id, *level)
	return nil
}

func (t *memoryTx) DeleteVipLevel(id string) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.vipLevels.get(id); !ok {
		return ErrNotFound
	}
	t.vipLevels.del(id)
	return nil
}

func (t *memoryTx) CrawlTask(setIndex int, id string) (*models.CrawlTask, error) {
	task, ok := t.crawlTasks.get(crawlKey{setIndex, id})
	if !ok {
		return nil, ErrNotFound
	}
	return &task, nil
}

func sequencePosition(setIndex int, id string) int {
	for i, s := range models.CrawlTaskSequence[setIndex] {
		if s == id {
			return i
		}
	}
	return len(models.CrawlTaskSequence[setIndex])
}

func (t *memoryTx) CrawlTasks(setIndex int) ([]models.CrawlTask, error) {
	res := []models.CrawlTask{}
	for _, task := range t.crawlTasks.values() {
		if task.SetIndex == setIndex {
			res = append(res, task)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		pi, pj := sequencePosition(setIndex, res[i].Id), sequencePosition(setIndex, res[j].Id)
		if pi != pj {
			return pi < pj
		}
		return res[i].Id < res[j].Id
	})
	return res, nil
}

func (t *memoryTx) SaveCrawlTask(task *models.CrawlTask) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.crawlTasks.put(crawlKey{task.SetIndex, task.Id}, *task)
	return nil
}

func (t *memoryTx) VipCrawlOverrides(vipLevel string) ([]models.VipCrawlOverride, error) {
	res := []models.VipCrawlOverride{}
	for _, o := range t.overrides.values() {
		if o.VipLevel == vipLevel {
			res = append(res, o)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].SetIndex != res[j].SetIndex {
			return res[i].SetIndex < res[j].SetIndex
		}
		return sequencePosition(res[i].SetIndex, res[i].TaskId) < sequencePosition(res[j].SetIndex, res[j].TaskId)
	})
	return res, nil
}

func (t *memoryTx) SaveVipCrawlOverride(o *models.VipCrawlOverride) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.overrides.put(overrideKey{o.VipLevel, o.SetIndex, o.TaskId}, *o)
	return nil
}

func (t *memoryTx) DeleteVipCrawlOverride(vipLevel string, setIndex int, taskId string) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.overrides.del(overrideKey{vipLevel, setIndex, taskId})
	return nil
}

func (t *memoryTx) CreateRecharge(r *models.RechargeRequest) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.seq.recharge++
	r.Id = t.seq.recharge
	t.recharges.put(r.Id, *r)
	return nil
}

func (t *memoryTx) RechargeById(id int64) (*models.RechargeRequest, error) {
	r, ok := t.recharges.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (t *memoryTx) UpdateRecharge(r *models.RechargeRequest) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.recharges.get(r.Id); !ok {
		return ErrNotFound
	}
	t.recharges.put(r.Id, *r)
	return nil
}

func (t *memoryTx) Recharges(f Filter) ([]models.RechargeRequest, error) {
	res := []models.RechargeRequest{}
	for _, r := range t.recharges.values() {
		if matches(f, r.Status, r.UserId) {
			res = append(res, r)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Id > res[j].Id })
	return page(res, f.Offset, f.Limit), nil
}

func (t *memoryTx) CreateWithdrawal(w *models.WithdrawalRequest) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.seq.withdrawal++
	w.Id = t.seq.withdrawal
	t.withdrawals.put(w.Id, *w)
	return nil
}

func (t *memoryTx) WithdrawalById(id int64) (*models.WithdrawalRequest, error) {
	w, ok := t.withdrawals.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &w, nil
}

func (t *memoryTx) UpdateWithdrawal(w *models.WithdrawalRequest) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.withdrawals.get(w.Id); !ok {
		return ErrNotFound
	}
	t.withdrawals.put(w.Id, *w)
	return nil
}

func (t *memoryTx) Withdrawals(f Filter) ([]models.WithdrawalRequest, error) {
	res := []models.WithdrawalRequest{}
	for _, w := range t.withdrawals.values() {
		if matches(f, w.Status, w.UserId) {
			res = append(res, w)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Id > res[j].Id })
	return page(res, f.Offset, f.Limit), nil
}

func (t *memoryTx) Activities() ([]models.Activity, error) {
	res := t.activities.values()
	sort.Slice(res, func(i, j int) bool { return res[i].Id < res[j].Id })
	return res, nil
}

func (t *memoryTx) ActivityById(id string) (*models.Activity, error) {
	a, ok := t.activities.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (t *memoryTx) SaveActivity(a *models.Activity) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.activities.put(a.Id, *a)
	return nil
}

func (t *memoryTx) DeleteActivity(id string) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.activities.get(id); !ok {
		return ErrNotFound
	}
	t.activities.del(id)
	return nil
}

func (t *memoryTx) CreateSubmission(s *models.ActivitySubmission) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.seq.submission++
	s.Id = t.seq.submission
	t.submissions.put(s.Id, *s)
	return nil
}

func (t *memoryTx) SubmissionById(id int64) (*models.ActivitySubmission, error) {
	s, ok := t.submissions.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (t *memoryTx) UpdateSubmission(s *models.ActivitySubmission) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.submissions.get(s.Id); !ok {
		return ErrNotFound
	}
	t.submissions.put(s.Id, *s)
	return nil
}

func (t *memoryTx) Submissions(f Filter) ([]models.ActivitySubmission, error) {
	res := []models.ActivitySubmission{}
	for _, s := range t.submissions.values() {
		if matches(f, s.Status, s.UserId) {
			res = append(res, s)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Id > res[j].Id })
	return page(res, f.Offset, f.Limit), nil
}

func (t *memoryTx) CreateMessage(m *models.Message) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.seq.message++
	m.Id = t.seq.message
	t.messages.put(m.Id, m.Clone())
	return nil
}

func (t *memoryTx) MessageById(id int64) (*models.Message, error) {
	m, ok := t.messages.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	c := m.Clone()
	return &c, nil
}

func (t *memoryTx) sortedMessages() []models.Message {
	res := t.messages.values()
	sort.Slice(res, func(i, j int) bool { return res[i].Id > res[j].Id })
	for i := range res {
		res[i] = res[i].Clone()
	}
	return res
}

func (t *memoryTx) MessagesFor(userId int64) ([]models.Message, error) {
	res := []models.Message{}
	for _, m := range t.sortedMessages() {
		if m.IsFor(userId) {
			res = append(res, m)
		}
	}
	return res, nil
}

func (t *memoryTx) Messages(offset, limit int) ([]models.Message, error) {
	return page(t.sortedMessages(), offset, limit), nil
}

func (t *memoryTx) DeleteMessage(id int64) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.messages.get(id); !ok {
		return ErrNotFound
	}
	t.messages.del(id)
	return nil
}

func (t *memoryTx) Settings() (*models.PlatformSettings, error) {
	if t.settings == nil {
		return nil, ErrNotFound
	}
	return t.settings.Clone(), nil
}

func (t *memoryTx) SaveSettings(s *models.PlatformSettings) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.settings = s.Clone()
	return nil
}

func (t *memoryTx) WalletAddress(currency, network string) (*models.WalletAddress, error) {
	w, ok := t.wallets.get(walletKey{currency, network})
	if !ok {
		return nil, ErrNotFound
	}
	return &w, nil
}

func (t *memoryTx) WalletAddresses() ([]models.WalletAddress, error) {
	res := t.wallets.values()
	sort.Slice(res, func(i, j int) bool {
		if res[i].Currency != res[j].Currency {
			return res[i].Currency < res[j].Currency
		}
		return res[i].Network < res[j].Network
	})
	return res, nil
}

func (t *memoryTx) SaveWalletAddress(w *models.WalletAddress) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.wallets.put(walletKey{w.Currency, w.Network}, *w)
	return nil
}

func (t *memoryTx) DeleteWalletAddress(currency, network string) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.wallets.get(walletKey{currency, network}); !ok {
		return ErrNotFound
	}
	t.wallets.del(walletKey{currency, network})
	return nil
}
