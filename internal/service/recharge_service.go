package service

import (
	"errors"
	"strings"
	"time"

	"github.com/lingqian-app/lingqian/internal/constants"
	"github.com/lingqian-app/lingqian/internal/logger"
	"github.com/lingqian-app/lingqian/internal/models"
	"github.com/lingqian-app/lingqian/internal/queue"
	"github.com/lingqian-app/lingqian/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConfirmOutcome 主入账路径的确认结果
type ConfirmOutcome int

const (
	// ConfirmCredited 本次确认完成入账
	ConfirmCredited ConfirmOutcome = iota
	// ConfirmAlreadyPaid 订单此前已入账，无需重复处理
	ConfirmAlreadyPaid
	// ConfirmNeedsFallback 当前库结构跑不了主路径，需要走旁路入账
	ConfirmNeedsFallback
)

// RechargeResult 回调处理的终态
type RechargeResult string

const (
	RechargeResultCredited     RechargeResult = "credited"
	RechargeResultAlreadyPaid  RechargeResult = "already_paid"
	RechargeResultOrderMissing RechargeResult = "order_missing"
	RechargeResultIgnored      RechargeResult = "ignored"
)

// RechargeService 充值服务
type RechargeService struct {
	rechargeRepo repository.RechargeRepository
	walletRepo   repository.WalletRepository
	userRepo     repository.UserRepository
	queueClient  *queue.Client
	enableMock   bool
}

// NewRechargeService 创建充值服务，queueClient 可为 nil
func NewRechargeService(
	rechargeRepo repository.RechargeRepository,
	walletRepo repository.WalletRepository,
	userRepo repository.UserRepository,
	queueClient *queue.Client,
	enableMock bool,
) *RechargeService {
	return &RechargeService{
		rechargeRepo: rechargeRepo,
		walletRepo:   walletRepo,
		userRepo:     userRepo,
		queueClient:  queueClient,
		enableMock:   enableMock,
	}
}

// CreateRechargeOrderInput 发起充值输入
type CreateRechargeOrderInput struct {
	UserID  uint
	Coins   int64
	Channel string
}

// PaymentSuccessInput 渠道回调的支付成功事件
type PaymentSuccessInput struct {
	Channel     string
	OutTradeNo  string
	ProviderRef string
	Payload     models.JSON
}

func rechargeLogger(kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}

// CreateOrder 发起一笔充值订单
func (s *RechargeService) CreateOrder(input CreateRechargeOrderInput) (*models.RechargeOrder, error) {
	if input.Coins <= 0 {
		return nil, ErrRechargeAmountInvalid
	}
	if !s.channelEnabled(input.Channel) {
		return nil, ErrRechargeChannelDisabled
	}
	user, err := s.userRepo.GetByID(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.Status != constants.UserStatusActive {
		return nil, ErrUserDisabled
	}

	coins := input.Coins
	amount := decimal.NewFromInt(coins).
		Div(decimal.NewFromInt(CoinsPerCNY)).
		Round(2)
	order := &models.RechargeOrder{
		OutTradeNo:  buildOutTradeNo(),
		UserID:      input.UserID,
		Status:      constants.RechargeStatusPending,
		CoinsAmount: &coins,
		AmountCNY:   models.NewMoneyFromDecimal(amount),
		Amount:      models.NewMoneyFromDecimal(amount),
		Channel:     input.Channel,
	}
	if err := s.rechargeRepo.CreateOrder(order); err != nil {
		return nil, err
	}
	rechargeLogger(
		"order_id", order.ID,
		"out_trade_no", order.OutTradeNo,
		"user_id", order.UserID,
		"coins", coins,
		"channel", order.Channel,
	).Infow("recharge_order_created")
	return order, nil
}

// ProcessPaymentSuccess 处理一次渠道支付成功回调：
// 查单、解析灵币数、主路径确认，主路径跑不了时旁路入账，
// 最后尽力修复 yi_coins 汇总列。
func (s *RechargeService) ProcessPaymentSuccess(input PaymentSuccessInput) (RechargeResult, error) {
	outTradeNo := strings.TrimSpace(input.OutTradeNo)
	if outTradeNo == "" {
		return RechargeResultIgnored, ErrRechargeOrderNotFound
	}
	log := rechargeLogger(
		"channel", input.Channel,
		"out_trade_no", outTradeNo,
		"provider_ref", strings.TrimSpace(input.ProviderRef),
	)
	log.Infow("recharge_callback_received")

	order, err := s.rechargeRepo.GetOrderByOutTradeNo(outTradeNo)
	if err != nil {
		log.Errorw("recharge_order_fetch_failed", "error", err)
		return RechargeResultIgnored, err
	}
	if order == nil {
		log.Warnw("recharge_order_not_found")
		return RechargeResultOrderMissing, nil
	}
	if order.Status == constants.RechargeStatusPaid {
		log.Infow("recharge_callback_idempotent", "order_id", order.ID)
		return RechargeResultAlreadyPaid, nil
	}

	coins, ok := ResolveCoinsAmount(order)
	if !ok {
		log.Errorw("recharge_amount_unresolved", "order_id", order.ID)
		return RechargeResultIgnored, ErrRechargeAmountUnresolved
	}

	outcome, err := s.ConfirmRecharge(outTradeNo, coins, input.ProviderRef, input.Payload)
	if err != nil {
		log.Errorw("recharge_confirm_failed", "order_id", order.ID, "error", err)
		return RechargeResultIgnored, err
	}

	result := RechargeResultCredited
	switch outcome {
	case ConfirmAlreadyPaid:
		result = RechargeResultAlreadyPaid
	case ConfirmNeedsFallback:
		log.Warnw("recharge_confirm_fallback", "order_id", order.ID)
		if err := s.CreditRechargeFallback(order.UserID, coins, outTradeNo); err != nil {
			log.Errorw("recharge_fallback_failed", "order_id", order.ID, "error", err)
			return RechargeResultIgnored, err
		}
		if err := s.rechargeRepo.MarkOrderPaid(order.ID, input.ProviderRef, input.Payload, time.Now()); err != nil {
			// 旁路已入账，状态回写失败靠描述幂等挡住重投
			log.Warnw("recharge_fallback_mark_paid_failed", "order_id", order.ID, "error", err)
		}
	}

	s.SyncYiCoins(order.UserID)
	log.Infow("recharge_callback_done", "order_id", order.ID, "result", string(result), "coins", coins)
	return result, nil
}

// ConfirmRecharge 主入账路径：单个事务内锁单、置为已支付、
// 加币并写入带唯一引用号的流水。引用号冲突视为已入账。
func (s *RechargeService) ConfirmRecharge(outTradeNo string, coins int64, providerRef string, payload models.JSON) (ConfirmOutcome, error) {
	if coins <= 0 {
		return ConfirmNeedsFallback, ErrInvalidCoins
	}
	outcome := ConfirmCredited
	err := s.rechargeRepo.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.rechargeRepo.WithTx(tx)
		walletRepo := s.walletRepo.WithTx(tx)

		order, err := orderRepo.GetOrderByOutTradeNoForUpdate(outTradeNo)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrRechargeOrderNotFound
		}
		if order.Status == constants.RechargeStatusPaid {
			outcome = ConfirmAlreadyPaid
			return nil
		}

		if err := orderRepo.MarkOrderPaid(order.ID, providerRef, payload, time.Now()); err != nil {
			return err
		}
		if err := s.ensureProfileTx(walletRepo, order.UserID); err != nil {
			return err
		}
		if err := walletRepo.CreditCoins(order.UserID, coins, 0); err != nil {
			return err
		}
		reference := rechargeReference(outTradeNo)
		return walletRepo.CreateTransaction(&models.CoinTransaction{
			UserID:      order.UserID,
			Amount:      coins,
			Type:        constants.CoinTxnTypeRecharge,
			BalanceType: constants.CoinBalanceTypePaid,
			Description: rechargeDescription(outTradeNo),
			Reference:   &reference,
		})
	})
	if err != nil {
		if repository.IsDuplicateKeyErr(err) {
			return ConfirmAlreadyPaid, nil
		}
		// 列探测漏掉的缺列写入同样走旁路，不能把回调打成失败
		if errors.Is(err, repository.ErrSchemaColumnMissing) || repository.IsMissingColumnErr(err) {
			return ConfirmNeedsFallback, nil
		}
		return ConfirmNeedsFallback, err
	}
	return outcome, nil
}

// CreditRechargeFallback 旁路入账：不开事务，先按描述探测流水做幂等，
// 再分步写余额与流水。并发重投在探测与插入之间存在已知竞态，
// 该路径只兜底老库结构，保持与线上行为一致。
func (s *RechargeService) CreditRechargeFallback(userID uint, coins int64, outTradeNo string) error {
	if userID == 0 || coins <= 0 {
		return ErrInvalidCoins
	}
	description := rechargeDescription(outTradeNo)
	existing, err := s.walletRepo.GetTransactionByDescription(userID, constants.CoinTxnTypeRecharge, description)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	if err := s.walletRepo.FallbackCreditPaid(userID, coins); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProfileNotFound
		}
		return err
	}

	if err := s.walletRepo.CreateTransaction(&models.CoinTransaction{
		UserID:      userID,
		Amount:      coins,
		Type:        constants.CoinTxnTypeRecharge,
		BalanceType: constants.CoinBalanceTypePaid,
		Description: description,
	}); err != nil {
		if repository.IsDuplicateKeyErr(err) {
			return nil
		}
		return err
	}
	return nil
}

// SyncYiCoins 修复 yi_coins 汇总列，尽力而为。同步失败时把修复
// 任务推进队列交给 worker 重试，队列未启用则只记日志。
func (s *RechargeService) SyncYiCoins(userID uint) {
	if userID == 0 {
		return
	}
	if err := s.walletRepo.SyncYiCoins(userID); err != nil {
		if errors.Is(err, repository.ErrSchemaColumnMissing) {
			return
		}
		log := rechargeLogger("user_id", userID)
		log.Warnw("yi_coins_sync_failed", "error", err)
		if s.queueClient.Enabled() {
			payload := queue.WalletCoinRepairPayload{UserID: userID}
			if err := s.queueClient.EnqueueWalletCoinRepair(payload); err != nil {
				log.Errorw("coin_repair_enqueue_failed", "error", err)
			}
		}
	}
}

// GetOrderForUser 查询当前用户的充值订单
func (s *RechargeService) GetOrderForUser(userID uint, outTradeNo string) (*models.RechargeOrder, error) {
	if userID == 0 {
		return nil, ErrRechargeOrderNotFound
	}
	order, err := s.rechargeRepo.GetOrderByOutTradeNo(outTradeNo)
	if err != nil {
		return nil, err
	}
	if order == nil || order.UserID != userID {
		return nil, ErrRechargeOrderNotFound
	}
	return order, nil
}

// ListOrders 分页查询充值订单
func (s *RechargeService) ListOrders(filter repository.RechargeOrderListFilter) ([]models.RechargeOrder, int64, error) {
	return s.rechargeRepo.ListOrders(filter)
}

func (s *RechargeService) channelEnabled(channel string) bool {
	switch channel {
	case constants.PaymentChannelAlipay, constants.PaymentChannelWechat:
		return true
	case constants.PaymentChannelMock:
		return s.enableMock
	default:
		return false
	}
}

func (s *RechargeService) ensureProfileTx(repo *repository.GormWalletRepository, userID uint) error {
	profile, err := repo.GetProfileByUserID(userID)
	if err != nil {
		return err
	}
	if profile != nil {
		return nil
	}
	if err := repo.CreateProfile(&models.Profile{UserID: userID}); err != nil {
		if repository.IsDuplicateKeyErr(err) {
			return nil
		}
		return err
	}
	return nil
}

func rechargeReference(outTradeNo string) string {
	return "recharge:" + strings.TrimSpace(outTradeNo)
}

func rechargeDescription(outTradeNo string) string {
	return "充值到账 " + strings.TrimSpace(outTradeNo)
}

func buildOutTradeNo() string {
	return "LQ" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
}
