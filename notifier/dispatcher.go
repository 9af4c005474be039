package notifier

import (
	"log"

	"insider-tracker/alerts"
	models "insider-tracker/database/models_pkg"
)

// Sender is the notification transport consumed by the dispatcher.
type Sender interface {
	SendTradeAlert(wallet *models.TrackedWallet, trade *models.Trade) error
	SendBatchAlert(groups map[string][]*models.Trade) error
	Recipients() string
}

// AlertRecorder is the alert-log surface the dispatcher writes to.
type AlertRecorder interface {
	Record(entry *models.AlertLog) error
	WasAlertSent(tradeUID string) (bool, error)
}

// AlertPublisher pushes completed alert attempts to realtime
// subscribers.
type AlertPublisher interface {
	PublishAlert(entry *models.AlertLog)
}

// Dispatcher owns delivery: the batching toggle, the
// was-already-notified guard, and alert-log recording for every
// attempt. Callers just hand it pending alerts; they never branch on
// delivery mode.
type Dispatcher struct {
	sender Sender
	log    AlertRecorder
	batch  bool
	events AlertPublisher // optional
}

// SetEventPublisher attaches a realtime publisher for alert attempts.
func (d *Dispatcher) SetEventPublisher(events AlertPublisher) {
	d.events = events
}

// NewDispatcher creates a dispatcher. batch selects digest delivery
// grouped by wallet instead of one email per trade.
func NewDispatcher(sender Sender, recorder AlertRecorder, batch bool) *Dispatcher {
	return &Dispatcher{
		sender: sender,
		log:    recorder,
		batch:  batch,
	}
}

// Dispatch delivers the pending alerts. Transport failures are
// captured in the alert log and logged; they never propagate, so one
// broken send cannot block later trades or future cycles.
func (d *Dispatcher) Dispatch(pending []alerts.Pending) {
	if d == nil {
		return // alerts disabled, storage-only mode
	}
	fresh := d.filterAlreadySent(pending)
	if len(fresh) == 0 {
		return
	}

	if d.batch && len(fresh) > 1 {
		d.dispatchBatch(fresh)
		return
	}
	for i := range fresh {
		d.dispatchSingle(&fresh[i])
	}
}

// filterAlreadySent applies the idempotence guard immediately before
// sending: a trade with any recorded attempt is skipped entirely.
func (d *Dispatcher) filterAlreadySent(pending []alerts.Pending) []alerts.Pending {
	fresh := pending[:0:0]
	for _, p := range pending {
		sent, err := d.log.WasAlertSent(p.Trade.TradeUID)
		if err != nil {
			log.Printf("❌ Alert-log lookup failed for trade %s: %v", p.Trade.TradeUID, err)
			continue
		}
		if sent {
			continue
		}
		fresh = append(fresh, p)
	}
	return fresh
}

func (d *Dispatcher) dispatchSingle(p *alerts.Pending) {
	err := d.sender.SendTradeAlert(&p.Wallet, &p.Trade)
	d.record(p, err)
	if err != nil {
		log.Printf("❌ Alert failed for trade %s: %v", p.Trade.TradeUID, err)
	} else {
		log.Printf("📧 Alert sent for trade %s", p.Trade.TradeUID)
	}
}

func (d *Dispatcher) dispatchBatch(pending []alerts.Pending) {
	grouped := alerts.GroupByWallet(pending)
	groups := make(map[string][]*models.Trade, len(grouped))
	for name, entries := range grouped {
		for i := range entries {
			groups[name] = append(groups[name], &entries[i].Trade)
		}
	}

	err := d.sender.SendBatchAlert(groups)
	for i := range pending {
		d.record(&pending[i], err)
	}
	if err != nil {
		log.Printf("❌ Batch alert failed (%d trades): %v", len(pending), err)
	} else {
		log.Printf("📧 Batch alert sent (%d trades)", len(pending))
	}
}

func (d *Dispatcher) record(p *alerts.Pending, sendErr error) {
	entry := &models.AlertLog{
		TradeUID:      p.Trade.TradeUID,
		WalletAddress: p.Wallet.WalletAddress,
		SentTo:        d.sender.Recipients(),
		SentAt:        models.NowISO(),
		Status:        models.AlertStatusSuccess,
	}
	if sendErr != nil {
		entry.Status = models.AlertStatusFailed
		entry.ErrorMessage = sendErr.Error()
	}
	if err := d.log.Record(entry); err != nil {
		log.Printf("❌ Failed to record alert attempt for trade %s: %v", p.Trade.TradeUID, err)
	}
	if d.events != nil {
		d.events.PublishAlert(entry)
	}
}
