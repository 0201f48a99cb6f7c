package bot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/ordobot/ordo/internal/domain"
)

const maxButtonsInRow = 8

// Keyboard is a ReplyMarkup (keyboard) builder.
type Keyboard struct {
	buttons    [][]tele.Btn
	currentRow []tele.Btn
	footer     []tele.Btn
}

// NewKeyboard creates new keyboard builder.
func NewKeyboard() *Keyboard {
	return &Keyboard{
		buttons:    make([][]tele.Btn, 0),
		currentRow: make([]tele.Btn, 0),
	}
}

// Add adds buttons to the current row, starting a new row when full.
func (k *Keyboard) Add(btns ...tele.Btn) *Keyboard {
	for _, btn := range btns {
		if len(k.currentRow) == maxButtonsInRow {
			k.StartNewRow()
		}
		k.currentRow = append(k.currentRow, btn)
	}
	return k
}

// AddRow adds buttons as their own row.
func (k *Keyboard) AddRow(btns ...tele.Btn) *Keyboard {
	if len(k.currentRow) > 0 {
		k.StartNewRow()
	}
	k.buttons = append(k.buttons, btns)
	return k
}

// AddFooter adds buttons to the footer row.
func (k *Keyboard) AddFooter(btns ...tele.Btn) *Keyboard {
	k.footer = append(k.footer, btns...)
	return k
}

// StartNewRow finishes the current row.
func (k *Keyboard) StartNewRow() *Keyboard {
	if len(k.currentRow) == 0 {
		return k
	}
	k.buttons = append(k.buttons, k.currentRow)
	k.currentRow = make([]tele.Btn, 0, maxButtonsInRow)
	return k
}

// CreateInlineMarkup creates inline keyboard from the current builder.
func (k *Keyboard) CreateInlineMarkup() *tele.ReplyMarkup {
	if len(k.currentRow) > 0 {
		k.StartNewRow()
	}

	out := make([][]tele.InlineButton, 0, len(k.buttons)+1)
	for _, row := range k.buttons {
		rOut := make([]tele.InlineButton, 0, len(row))
		for _, btn := range row {
			rOut = append(rOut, *btn.Inline())
		}
		out = append(out, rOut)
	}

	if len(k.footer) > 0 {
		rOut := make([]tele.InlineButton, 0, len(k.footer))
		for _, btn := range k.footer {
			rOut = append(rOut, *btn.Inline())
		}
		out = append(out, rOut)
	}

	return &tele.ReplyMarkup{InlineKeyboard: out}
}

// dataBtn creates a button carrying raw callback data. With an empty
// Unique, telebot sends the data as-is and delivers taps to OnCallback.
func dataBtn(text, data string) tele.Btn {
	return tele.Btn{Text: text, Data: data}
}

func homeBtn() tele.Btn {
	return dataBtn("🏠 Main menu", encodeAction(ActionNav, "home"))
}

func backBtn() tele.Btn {
	return dataBtn("🔙 Back", encodeAction(ActionNav, "back"))
}

// menuMarkup renders the main menu: one catalog item per row plus a
// home button.
func menuMarkup(items []domain.MenuItem) *tele.ReplyMarkup {
	k := NewKeyboard()
	for _, item := range items {
		k.AddRow(dataBtn(item.Label, encodeAction(ActionButton, item.ID)))
	}
	k.AddFooter(homeBtn())
	return k.CreateInlineMarkup()
}

// submenuMarkup renders a nested menu with back and home buttons.
func submenuMarkup(items []domain.MenuItem) *tele.ReplyMarkup {
	k := NewKeyboard()
	for _, item := range items {
		k.AddRow(dataBtn(item.Label, encodeAction(ActionButton, item.ID)))
	}
	k.AddFooter(backBtn(), homeBtn())
	return k.CreateInlineMarkup()
}

// homeMarkup is a single home button.
func homeMarkup() *tele.ReplyMarkup {
	return NewKeyboard().AddRow(homeBtn()).CreateInlineMarkup()
}
