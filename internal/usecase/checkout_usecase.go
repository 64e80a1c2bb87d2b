package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// チェックアウト入力の検証を約束
type CheckoutValidator interface {
	ValidateCheckout(ctx context.Context, in CheckoutInput) error
}

// 模擬チェックアウト。決済はせず、記録してカートを空にする。
type CheckoutUsecase struct {
	sessions  repo.SessionRepository
	receipts  repo.CheckoutRepository
	publisher repo.CheckoutPublisher
	validator CheckoutValidator
	taxRate   decimal.Decimal
	delay     time.Duration
	logger    *zap.Logger
}

// DI
func NewCheckoutUsecase(
	sessions repo.SessionRepository,
	receipts repo.CheckoutRepository,
	publisher repo.CheckoutPublisher,
	validator CheckoutValidator,
	taxRate decimal.Decimal,
	delay time.Duration,
	logger *zap.Logger,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		sessions:  sessions,
		receipts:  receipts,
		publisher: publisher,
		validator: validator,
		taxRate:   taxRate,
		delay:     delay,
		logger:    logger,
	}
}

type CheckoutInput struct {
	Email      string
	FirstName  string
	LastName   string
	Address    string
	City       string
	State      string
	ZipCode    string
	Country    string
	CardNumber string
	ExpiryDate string
	CVV        string
	NameOnCard string
}

type ReceiptLineOutput struct {
	ProductID int64       `json:"product_id"`
	Name      string      `json:"name"`
	Price     model.Money `json:"price"`
	Quantity  int64       `json:"quantity"`
	LineTotal model.Money `json:"line_total"`
}

type ReceiptOutput struct {
	Number    string              `json:"number"`
	Email     string              `json:"email"`
	ShipTo    string              `json:"ship_to"`
	Items     []ReceiptLineOutput `json:"items"`
	ItemCount int64               `json:"item_count"`
	Subtotal  model.Money         `json:"subtotal"`
	Tax       model.Money         `json:"tax"`
	Total     model.Money         `json:"total"`
	CardLast4 string              `json:"card_last4,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// 小計・税・合計（税はセント単位で四捨五入）
type Totals struct {
	Subtotal model.Money
	Tax      model.Money
	Total    model.Money
}

func ComputeTotals(subtotal model.Money, rate decimal.Decimal) (Totals, error) {
	tax, err := subtotal.MulRate(rate)
	if err != nil {
		return Totals{}, err
	}
	total, ok := subtotal.Add(tax)
	if !ok {
		return Totals{}, model.ErrInvalidPrice
	}
	return Totals{Subtotal: subtotal, Tax: tax, Total: total}, nil
}

// チェックアウト
func (u *CheckoutUsecase) Checkout(ctx context.Context, sessionID string, in CheckoutInput) (ReceiptOutput, error) {
	store, err := resolveCart(ctx, u.sessions, sessionID)
	if err != nil {
		return ReceiptOutput{}, err
	}

	if err := u.validator.ValidateCheckout(ctx, in); err != nil {
		return ReceiptOutput{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}

	snap := store.Snapshot()
	if snap.IsEmpty() {
		return ReceiptOutput{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}

	//決済処理の代わりに待つ
	if u.delay > 0 {
		timer := time.NewTimer(u.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ReceiptOutput{}, NewHTTPError(http.StatusRequestTimeout, "canceled")
		case <-timer.C:
		}
	}

	//待っている間にカートが変わったらやり直してもらう
	if store.Snapshot().Version != snap.Version {
		return ReceiptOutput{}, NewHTTPError(http.StatusConflict, "cart changed")
	}

	totals, err := ComputeTotals(snap.Subtotal, u.taxRate)
	if err != nil {
		u.logger.Error("compute totals failed", zap.String("session_id", sessionID), zap.Error(err))
		return ReceiptOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	receipt := buildReceipt(sessionID, in, snap, totals)

	if err := u.receipts.Create(ctx, &receipt); err != nil {
		u.logger.Error("record checkout failed", zap.String("session_id", sessionID), zap.Error(err))
		return ReceiptOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	last4 := cardLast4(in.CardNumber)
	if err := u.publisher.PublishCheckoutCompleted(ctx, toCheckoutEvent(receipt, totals, last4)); err != nil {
		//送信失敗でもチェックアウト自体は成功扱い
		u.logger.Warn("publish checkout event failed",
			zap.String("receipt_number", receipt.Number),
			zap.Error(err))
	}

	//記録中に追加・増量された分は残して、支払った分だけ消す
	if _, cleared := store.ClearIfVersion(snap.Version); !cleared {
		store.Deduct(snap.Items)
		u.logger.Info("cart changed while recording checkout",
			zap.String("session_id", sessionID),
			zap.String("receipt_number", receipt.Number))
	}

	u.logger.Info("checkout completed",
		zap.String("session_id", sessionID),
		zap.String("receipt_number", receipt.Number),
		zap.String("total", totals.Total.String()))

	out := toReceiptOutput(receipt)
	out.CardLast4 = last4
	return out, nil
}

// 受付票を取得（自分のセッションのものだけ）
func (u *CheckoutUsecase) GetReceipt(ctx context.Context, sessionID string, number string) (ReceiptOutput, error) {
	if _, err := resolveCart(ctx, u.sessions, sessionID); err != nil {
		return ReceiptOutput{}, err
	}
	if _, err := uuid.Parse(number); err != nil {
		return ReceiptOutput{}, NewHTTPError(http.StatusBadRequest, "invalid number")
	}

	receipt, err := u.receipts.FindByNumber(ctx, number)
	if errors.Is(err, repo.ErrNotFound) {
		return ReceiptOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return ReceiptOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if receipt.SessionID != sessionID {
		return ReceiptOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	return toReceiptOutput(receipt), nil
}

func buildReceipt(sessionID string, in CheckoutInput, snap model.CartSnapshot, totals Totals) model.CheckoutReceipt {
	lines := make([]model.CheckoutLine, 0, len(snap.Items))
	for _, it := range snap.Items {
		lines = append(lines, model.CheckoutLine{
			ProductID:           it.Product.ID,
			ProductNameSnapshot: it.Product.Name,
			UnitPriceSnapshot:   int64(it.Product.UnitPrice),
			Quantity:            it.Quantity,
			LineTotal:           int64(it.LineTotal()),
		})
	}

	return model.CheckoutReceipt{
		Number:    uuid.NewString(),
		SessionID: sessionID,
		Email:     strings.TrimSpace(in.Email),
		ShipName:  strings.TrimSpace(strings.TrimSpace(in.FirstName) + " " + strings.TrimSpace(in.LastName)),
		Address:   strings.TrimSpace(in.Address),
		City:      strings.TrimSpace(in.City),
		State:     strings.TrimSpace(in.State),
		ZipCode:   strings.TrimSpace(in.ZipCode),
		Country:   strings.TrimSpace(in.Country),
		Subtotal:  int64(totals.Subtotal),
		Tax:       int64(totals.Tax),
		Total:     int64(totals.Total),
		ItemCount: snap.Count,
		CreatedAt: time.Now(),
		Lines:     lines,
	}
}

func toReceiptOutput(r model.CheckoutReceipt) ReceiptOutput {
	items := make([]ReceiptLineOutput, 0, len(r.Lines))
	for _, l := range r.Lines {
		items = append(items, ReceiptLineOutput{
			ProductID: l.ProductID,
			Name:      l.ProductNameSnapshot,
			Price:     model.Money(l.UnitPriceSnapshot),
			Quantity:  l.Quantity,
			LineTotal: model.Money(l.LineTotal),
		})
	}

	return ReceiptOutput{
		Number:    r.Number,
		Email:     r.Email,
		ShipTo:    strings.Join(nonEmpty(r.ShipName, r.Address, r.City, r.State, r.ZipCode, r.Country), ", "),
		Items:     items,
		ItemCount: r.ItemCount,
		Subtotal:  model.Money(r.Subtotal),
		Tax:       model.Money(r.Tax),
		Total:     model.Money(r.Total),
		CreatedAt: r.CreatedAt,
	}
}

func toCheckoutEvent(r model.CheckoutReceipt, totals Totals, last4 string) repo.CheckoutCompletedEvent {
	items := make([]repo.CheckoutLineEvent, 0, len(r.Lines))
	for _, l := range r.Lines {
		items = append(items, repo.CheckoutLineEvent{
			ProductID: l.ProductID,
			Name:      l.ProductNameSnapshot,
			UnitPrice: model.Money(l.UnitPriceSnapshot).String(),
			Quantity:  l.Quantity,
		})
	}

	return repo.CheckoutCompletedEvent{
		EventID:       uuid.NewString(),
		ReceiptNumber: r.Number,
		SessionID:     r.SessionID,
		Email:         r.Email,
		CardLast4:     last4,
		Items:         items,
		Subtotal:      totals.Subtotal.String(),
		Tax:           totals.Tax.String(),
		Total:         totals.Total.String(),
		OccurredAt:    r.CreatedAt,
	}
}

// カード番号は下4桁だけ残す
func cardLast4(number string) string {
	digits := make([]byte, 0, len(number))
	for i := 0; i < len(number); i++ {
		if number[i] >= '0' && number[i] <= '9' {
			digits = append(digits, number[i])
		}
	}
	if len(digits) < 4 {
		return ""
	}
	return string(digits[len(digits)-4:])
}

func nonEmpty(parts ...string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
