package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"taskhub/internal/models"
	"time"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const txTimeout = 30 * time.Second

var userColumns = []string{
	"email", "phone", "password_hash", "main_balance", "withdrawal_balance", "vip_level", "status",
	"registered_at", "last_login_at", "ip_address", "invitation_code", "invited_by", "recharge_amount",
	"recharge_commission", "task_commission", "total_withdrawals", "task_next_available_at", "avatar_url",
	"withdrawal_fee_override", "commission_rates_override", "withdrawal_enabled", "crawl_sets",
	"login_streak", "last_login_date", "read_message_ids", "telegram_chat_id",
}

var (
	selectUser = "SELECT id, " + strings.Join(userColumns, ", ") + " FROM users"
	insertUser = "INSERT INTO users (" + strings.Join(userColumns, ", ") + ") VALUES (" +
		namedList(userColumns) + ") RETURNING id"
	updateUser = "UPDATE users SET " + namedAssignments(userColumns) + " WHERE id = :id"
)

func namedList(cols []string) string {
	named := make([]string, len(cols))
	for i, c := range cols {
		named[i] = ":" + c
	}
	return strings.Join(named, ", ")
}

func namedAssignments(cols []string) string {
	set := make([]string, len(cols))
	for i, c := range cols {
		set[i] = c + " = :" + c
	}
	return strings.Join(set, ", ")
}

// PostgresStore runs every Tx inside a database transaction. Rows read by
// Atomic are locked with SELECT ... FOR UPDATE until commit.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{
		db: db,
	}
}

func (s *PostgresStore) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		log.Error("Failed to begin transaction: ", err)
		return err
	}

	if err := fn(&pgTx{tx: tx, ctx: ctx, lock: true}); err != nil {
		if er := tx.Rollback(); er != nil {
			log.Error("Transaction rollback failed: ", er)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error("Failed to commit transaction: ", err)
		return mapError(err)
	}

	return nil
}

func (s *PostgresStore) View(ctx context.Context, fn func(tx Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		log.Error("Failed to begin transaction: ", err)
		return err
	}
	defer func() {
		if er := tx.Rollback(); er != nil && !errors.Is(er, sql.ErrTxDone) {
			log.Error("Transaction rollback failed: ", er)
		}
	}()

	return fn(&pgTx{tx: tx, ctx: ctx})
}

type pgTx struct {
	tx   *sqlx.Tx
	ctx  context.Context
	lock bool
}

func (t *pgTx) forUpdate() string {
	if t.lock {
		return " FOR UPDATE"
	}
	return ""
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrConflict
	}
	return err
}

// limitArg maps a non-positive limit to NULL, which postgres treats as no limit.
func limitArg(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}

func (t *pgTx) get(dst any, query string, args ...any) error {
	if err := t.tx.GetContext(t.ctx, dst, query, args...); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Error("Query failed: ", err)
		}
		return mapError(err)
	}
	return nil
}

func (t *pgTx) sel(dst any, query string, args ...any) error {
	if err := t.tx.SelectContext(t.ctx, dst, query, args...); err != nil {
		log.Error("Query failed: ", err)
		return mapError(err)
	}
	return nil
}

func (t *pgTx) exec(query string, args ...any) (int64, error) {
	res, err := t.tx.ExecContext(t.ctx, query, args...)
	if err != nil {
		log.Error("Statement failed: ", err)
		return 0, mapError(err)
	}
	return res.RowsAffected()
}

func (t *pgTx) namedExec(query string, arg any) (int64, error) {
	res, err := t.tx.NamedExecContext(t.ctx, query, arg)
	if err != nil {
		log.Error("Statement failed: ", err)
		return 0, mapError(err)
	}
	return res.RowsAffected()
}

// insertReturning runs a named insert and scans the generated id into dst.
func (t *pgTx) insertReturning(query string, arg any, dst any) error {
	query, args, err := t.tx.BindNamed(query, arg)
	if err != nil {
		log.Error("Failed to bind query: ", err)
		return err
	}
	if err := t.tx.QueryRowxContext(t.ctx, query, args...).Scan(dst); err != nil {
		log.Error("Insert failed: ", err)
		return mapError(err)
	}
	return nil
}

func affected(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) UserById(id int64) (*models.User, error) {
	var u models.User
	if err := t.get(&u, selectUser+" WHERE id = $1"+t.forUpdate(), id); err != nil {
		return nil, err
	}
	return &u, nil
}

func (t *pgTx) UserByEmail(email string) (*models.User, error) {
	var u models.User
	if err := t.get(&u, selectUser+" WHERE lower(email) = lower($1)"+t.forUpdate(), strings.TrimSpace(email)); err != nil {
		return nil, err
	}
	return &u, nil
}

func (t *pgTx) UserByInvitationCode(code string) (*models.User, error) {
	if code == "" {
		return nil, ErrNotFound
	}
	var u models.User
	if err := t.get(&u, selectUser+" WHERE invitation_code = $1"+t.forUpdate(), code); err != nil {
		return nil, err
	}
	return &u, nil
}

func (t *pgTx) UserByTelegramChat(chatId int64) (*models.User, error) {
	var u models.User
	if err := t.get(&u, selectUser+" WHERE telegram_chat_id = $1"+t.forUpdate(), chatId); err != nil {
		return nil, err
	}
	return &u, nil
}

func (t *pgTx) UsersInvitedBy(codes []string) ([]models.User, error) {
	users := []models.User{}
	if len(codes) == 0 {
		return users, nil
	}
	if err := t.sel(&users, selectUser+" WHERE invited_by = ANY($1) ORDER BY id", pq.Array(codes)); err != nil {
		return nil, err
	}
	return users, nil
}

func (t *pgTx) FindUsers(query string, offset, limit int) ([]models.User, int, error) {
	q := strings.TrimSpace(query)
	pattern := "%" + q + "%"
	where := " WHERE ($1 = '' OR email ILIKE $2 OR phone ILIKE $2 OR invitation_code ILIKE $2 OR ip_address ILIKE $2)"

	var total int
	if err := t.get(&total, "SELECT count(*) FROM users"+where, q, pattern); err != nil {
		return nil, 0, err
	}

	users := []models.User{}
	err := t.sel(&users, selectUser+where+" ORDER BY id DESC LIMIT $3 OFFSET $4", q, pattern, limitArg(limit), offset)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (t *pgTx) UserIds() ([]int64, error) {
	ids := []int64{}
	if err := t.sel(&ids, "SELECT id FROM users ORDER BY id"); err != nil {
		return nil, err
	}
	return ids, nil
}

func (t *pgTx) CreateUser(user *models.User) error {
	return t.insertReturning(insertUser, user, &user.Id)
}

func (t *pgTx) UpdateUser(user *models.User) error {
	return affected(t.namedExec(updateUser, user))
}

func (t *pgTx) AddTransaction(tr *models.Transaction) error {
	return t.insertReturning(
		"INSERT INTO transactions (user_id, account, amount, type, description, metadata, created_at) "+
			"VALUES (:user_id, :account, :amount, :type, :description, :metadata, :created_at) RETURNING id",
		tr,
		&tr.Id,
	)
}

func (t *pgTx) TransactionsByUser(userId int64, offset, limit int) ([]models.Transaction, int, error) {
	var total int
	if err := t.get(&total, "SELECT count(*) FROM transactions WHERE user_id = $1", userId); err != nil {
		return nil, 0, err
	}
	res := []models.Transaction{}
	err := t.sel(&res,
		"SELECT * FROM transactions WHERE user_id = $1 ORDER BY id DESC LIMIT $2 OFFSET $3",
		userId, limitArg(limit), offset,
	)
	if err != nil {
		return nil, 0, err
	}
	return res, total, nil
}

func (t *pgTx) LedgerSum(userId int64, account string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := t.get(&sum, "SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE user_id = $1 AND account = $2", userId, account)
	return sum, err
}

func (t *pgTx) VipLevels() ([]models.VipLevel, error) {
	levels := []models.VipLevel{}
	if err := t.sel(&levels, "SELECT * FROM vip_levels ORDER BY position, id"); err != nil {
		return nil, err
	}
	return levels, nil
}

func (t *pgTx) SaveVipLevel(level *models.VipLevel) error {
	_, err := t.namedExec(
		`INSERT INTO vip_levels (id, name, image_src, tasks, benefit, daily_profit, total_profit, unlock_cost, position)
		VALUES (:id, :name, :image_src, :tasks, :benefit, :daily_profit, :total_profit, :unlock_cost, :position)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, image_src = EXCLUDED.image_src, tasks = EXCLUDED.tasks,
		benefit = EXCLUDED.benefit, daily_profit = EXCLUDED.daily_profit, total_profit = EXCLUDED.total_profit,
		unlock_cost = EXCLUDED.unlock_cost, position = EXCLUDED.position`,
		level,
	)
	return err
}

func (t *pgTx) DeleteVipLevel(id string) error {
	return affected(t.exec("DELETE FROM vip_levels WHERE id = $1", id))
}

func (t *pgTx) CrawlTask(setIndex int, id string) (*models.CrawlTask, error) {
	var task models.CrawlTask
	if err := t.get(&task, "SELECT * FROM crawl_tasks WHERE set_index = $1 AND id = $2", setIndex, id); err != nil {
		return nil, err
	}
	return &task, nil
}

func (t *pgTx) CrawlTasks(setIndex int) ([]models.CrawlTask, error) {
	tasks := []models.CrawlTask{}
	if err := t.sel(&tasks, "SELECT * FROM crawl_tasks WHERE set_index = $1", setIndex); err != nil {
		return nil, err
	}
	sort.Slice(tasks, func(i, j int) bool {
		pi, pj := sequencePosition(setIndex, tasks[i].Id), sequencePosition(setIndex, tasks[j].Id)
		if pi != pj {
			return pi < pj
		}
		return tasks[i].Id < tasks[j].Id
	})
	return tasks, nil
}

func (t *pgTx) SaveCrawlTask(task *models.CrawlTask) error {
	_, err := t.namedExec(
		`INSERT INTO crawl_tasks (set_index, id, name, image_src, price, income)
		VALUES (:set_index, :id, :name, :image_src, :price, :income)
		ON CONFLICT (set_index, id) DO UPDATE SET name = EXCLUDED.name, image_src = EXCLUDED.image_src,
		price = EXCLUDED.price, income = EXCLUDED.income`,
		task,
	)
	return err
}

func (t *pgTx) VipCrawlOverrides(vipLevel string) ([]models.VipCrawlOverride, error) {
	res := []models.VipCrawlOverride{}
	err := t.sel(&res,
		"SELECT vip_level, set_index, task_id, name, price, income FROM vip_crawl_overrides WHERE vip_level = $1 ORDER BY set_index, task_id",
		vipLevel,
	)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (t *pgTx) SaveVipCrawlOverride(o *models.VipCrawlOverride) error {
	_, err := t.namedExec(
		`INSERT INTO vip_crawl_overrides (vip_level, set_index, task_id, name, price, income)
		VALUES (:vip_level, :set_index, :task_id, :name, :price, :income)
		ON CONFLICT (vip_level, set_index, task_id) DO UPDATE SET name = EXCLUDED.name,
		price = EXCLUDED.price, income = EXCLUDED.income`,
		o,
	)
	return err
}

func (t *pgTx) DeleteVipCrawlOverride(vipLevel string, setIndex int, taskId string) error {
	_, err := t.exec(
		"DELETE FROM vip_crawl_overrides WHERE vip_level = $1 AND set_index = $2 AND task_id = $3",
		vipLevel, setIndex, taskId,
	)
	return err
}

const filterWhere = " WHERE ($1 = '' OR status = $1) AND ($2 = 0 OR user_id = $2) ORDER BY id DESC LIMIT $3 OFFSET $4"

func (t *pgTx) CreateRecharge(r *models.RechargeRequest) error {
	return t.insertReturning(
		`INSERT INTO recharge_requests (user_id, user_email, amount, currency, network, payment_proof, status, created_at, processed_at)
		VALUES (:user_id, :user_email, :amount, :currency, :network, :payment_proof, :status, :created_at, :processed_at) RETURNING id`,
		r,
		&r.Id,
	)
}

func (t *pgTx) RechargeById(id int64) (*models.RechargeRequest, error) {
	var r models.RechargeRequest
	if err := t.get(&r, "SELECT * FROM recharge_requests WHERE id = $1"+t.forUpdate(), id); err != nil {
		return nil, err
	}
	return &r, nil
}

func (t *pgTx) UpdateRecharge(r *models.RechargeRequest) error {
	return affected(t.namedExec(
		"UPDATE recharge_requests SET status = :status, processed_at = :processed_at WHERE id = :id",
		r,
	))
}

func (t *pgTx) Recharges(f Filter) ([]models.RechargeRequest, error) {
	res := []models.RechargeRequest{}
	if err := t.sel(&res, "SELECT * FROM recharge_requests"+filterWhere, f.Status, f.UserId, limitArg(f.Limit), f.Offset); err != nil {
		return nil, err
	}
	return res, nil
}

func (t *pgTx) CreateWithdrawal(w *models.WithdrawalRequest) error {
	return t.insertReturning(
		`INSERT INTO withdrawal_requests (user_id, user_email, amount, usdt_value, gross_usdt_value, currency, network, address, status, created_at, processed_at)
		VALUES (:user_id, :user_email, :amount, :usdt_value, :gross_usdt_value, :currency, :network, :address, :status, :created_at, :processed_at) RETURNING id`,
		w,
		&w.Id,
	)
}

func (t *pgTx) WithdrawalById(id int64) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	if err := t.get(&w, "SELECT * FROM withdrawal_requests WHERE id = $1"+t.forUpdate(), id); err != nil {
		return nil, err
	}
	return &w, nil
}

func (t *pgTx) UpdateWithdrawal(w *models.WithdrawalRequest) error {
	return affected(t.namedExec(
		"UPDATE withdrawal_requests SET status = :status, processed_at = :processed_at WHERE id = :id",
		w,
	))
}

func (t *pgTx) Withdrawals(f Filter) ([]models.WithdrawalRequest, error) {
	res := []models.WithdrawalRequest{}
	if err := t.sel(&res, "SELECT * FROM withdrawal_requests"+filterWhere, f.Status, f.UserId, limitArg(f.Limit), f.Offset); err != nil {
		return nil, err
	}
	return res, nil
}

func (t *pgTx) Activities() ([]models.Activity, error) {
	res := []models.Activity{}
	if err := t.sel(&res, "SELECT * FROM activities ORDER BY id"); err != nil {
		return nil, err
	}
	return res, nil
}

func (t *pgTx) ActivityById(id string) (*models.Activity, error) {
	var a models.Activity
	if err := t.get(&a, "SELECT * FROM activities WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &a, nil
}

func (t *pgTx) SaveActivity(a *models.Activity) error {
	_, err := t.namedExec(
		`INSERT INTO activities (id, title, icon, amount, task_content, task_steps)
		VALUES (:id, :title, :icon, :amount, :task_content, :task_steps)
		ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, icon = EXCLUDED.icon, amount = EXCLUDED.amount,
		task_content = EXCLUDED.task_content, task_steps = EXCLUDED.task_steps`,
		a,
	)
	return err
}

func (t *pgTx) DeleteActivity(id string) error {
	return affected(t.exec("DELETE FROM activities WHERE id = $1", id))
}

func (t *pgTx) CreateSubmission(s *models.ActivitySubmission) error {
	return t.insertReturning(
		`INSERT INTO activity_submissions (user_id, user_email, activity_id, activity_title, sample_image, completion_notes, status, created_at)
		VALUES (:user_id, :user_email, :activity_id, :activity_title, :sample_image, :completion_notes, :status, :created_at) RETURNING id`,
		s,
		&s.Id,
	)
}

func (t *pgTx) SubmissionById(id int64) (*models.ActivitySubmission, error) {
	var s models.ActivitySubmission
	if err := t.get(&s, "SELECT * FROM activity_submissions WHERE id = $1"+t.forUpdate(), id); err != nil {
		return nil, err
	}
	return &s, nil
}

func (t *pgTx) UpdateSubmission(s *models.ActivitySubmission) error {
	return affected(t.namedExec("UPDATE activity_submissions SET status = :status WHERE id = :id", s))
}

func (t *pgTx) Submissions(f Filter) ([]models.ActivitySubmission, error) {
	res := []models.ActivitySubmission{}
	if err := t.sel(&res, "SELECT * FROM activity_submissions"+filterWhere, f.Status, f.UserId, limitArg(f.Limit), f.Offset); err != nil {
		return nil, err
	}
	return res, nil
}

func (t *pgTx) CreateMessage(m *models.Message) error {
	return t.insertReturning(
		`INSERT INTO messages (title, content, params, recipient_id, created_at)
		VALUES (:title, :content, :params, :recipient_id, :created_at) RETURNING id`,
		m,
		&m.Id,
	)
}

func (t *pgTx) MessageById(id int64) (*models.Message, error) {
	var m models.Message
	if err := t.get(&m, "SELECT * FROM messages WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &m, nil
}

func (t *pgTx) MessagesFor(userId int64) ([]models.Message, error) {
	res := []models.Message{}
	err := t.sel(&res, "SELECT * FROM messages WHERE recipient_id IS NULL OR recipient_id = $1 ORDER BY id DESC", userId)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (t *pgTx) Messages(offset, limit int) ([]models.Message, error) {
	res := []models.Message{}
	if err := t.sel(&res, "SELECT * FROM messages ORDER BY id DESC LIMIT $1 OFFSET $2", limitArg(limit), offset); err != nil {
		return nil, err
	}
	return res, nil
}

func (t *pgTx) DeleteMessage(id int64) error {
	return affected(t.exec("DELETE FROM messages WHERE id = $1", id))
}

func (t *pgTx) Settings() (*models.PlatformSettings, error) {
	var data []byte
	if err := t.get(&data, "SELECT data FROM platform_settings WHERE id = 1"+t.forUpdate()); err != nil {
		return nil, err
	}
	var s models.PlatformSettings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return &s, nil
}

func (t *pgTx) SaveSettings(s *models.PlatformSettings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	_, err = t.exec(
		`INSERT INTO platform_settings (id, version, data) VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET version = EXCLUDED.version, data = EXCLUDED.data`,
		s.Version, string(data),
	)
	return err
}

func (t *pgTx) WalletAddress(currency, network string) (*models.WalletAddress, error) {
	var w models.WalletAddress
	if err := t.get(&w, "SELECT * FROM wallet_addresses WHERE currency = $1 AND network = $2", currency, network); err != nil {
		return nil, err
	}
	return &w, nil
}

func (t *pgTx) WalletAddresses() ([]models.WalletAddress, error) {
	res := []models.WalletAddress{}
	if err := t.sel(&res, "SELECT * FROM wallet_addresses ORDER BY currency, network"); err != nil {
		return nil, err
	}
	return res, nil
}

func (t *pgTx) SaveWalletAddress(w *models.WalletAddress) error {
	_, err := t.namedExec(
		`INSERT INTO wallet_addresses (currency, network, address, qr_code_url)
		VALUES (:currency, :network, :address, :qr_code_url)
		ON CONFLICT (currency, network) DO UPDATE SET address = EXCLUDED.address, qr_code_url = EXCLUDED.qr_code_url`,
		w,
	)
	return err
}

func (t *pgTx) DeleteWalletAddress(currency, network string) error {
	return affected(t.exec("DELETE FROM wallet_addresses WHERE currency = $1 AND network = $2", currency, network))
}
