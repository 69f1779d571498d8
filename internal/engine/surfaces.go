package engine

import (
	"fmt"
	"strings"

	"github.com/go-telegram/bot/models"
	"github.com/set-night/cardtask/internal/domain"
	"github.com/set-night/cardtask/internal/telegram"
)

// Surface is the single renderable unit shown to a user: text or photo
// plus an optional button set. Tracked surfaces replace the previous
// menu message; untracked ones are one-off confirmations.
type Surface struct {
	Text        string
	PhotoFileID string
	Markup      models.ReplyMarkup
	Tracked     bool
}

// Reply-keyboard button labels. Pressing one arrives as plain message
// text, so the transport maps these back to intents before the engine
// sees them.
const (
	LabelNext       = "➡ Далее"
	LabelStartEarn  = "💰 Приступить к заработку"
	LabelAsk        = "❓ Задать вопрос"
	LabelProfile    = "👤 Профиль"
	LabelTasks      = "📜 Задания"
	LabelReportCard = "✔️ Получил карту"
	LabelReferral   = "🤝 Реферальная программа"
	LabelSupport    = "🆘 Тех. поддержка"
	LabelReviews    = "⭐ Отзывы"
	LabelAge14      = "🧒 14+"
	LabelAge18      = "🔞 18+"
	LabelOtherTasks = "➕ Остальные задания"
	LabelEmoji      = "😊"
)

// LabelIntent maps a reply-keyboard label (or an offer button label) to
// the intent it stands for.
func LabelIntent(text string) (domain.Intent, bool) {
	switch text {
	case LabelNext:
		return domain.Intent{Kind: domain.IntentExplain}, true
	case LabelStartEarn:
		return domain.Intent{Kind: domain.IntentProceed}, true
	case LabelTasks:
		return domain.Intent{Kind: domain.IntentMenuTasks}, true
	case LabelAsk:
		return domain.Intent{Kind: domain.IntentAsk}, true
	case LabelProfile:
		return domain.Intent{Kind: domain.IntentMenuProfile}, true
	case LabelReportCard:
		return domain.Intent{Kind: domain.IntentMenuReport}, true
	case LabelReferral:
		return domain.Intent{Kind: domain.IntentMenuReferral}, true
	case LabelSupport:
		return domain.Intent{Kind: domain.IntentMenuSupport}, true
	case LabelReviews:
		return domain.Intent{Kind: domain.IntentMenuReviews}, true
	case LabelAge14:
		return domain.Intent{Kind: domain.IntentSelectAge, Age: domain.Age14Plus}, true
	case LabelAge18:
		return domain.Intent{Kind: domain.IntentSelectAge, Age: domain.Age18Plus}, true
	case LabelOtherTasks:
		return domain.Intent{Kind: domain.IntentOtherTasks}, true
	case LabelEmoji:
		return domain.Intent{Kind: domain.IntentEmoji}, true
	}
	if _, ok := domain.OfferByLabel(text); ok {
		return domain.Intent{Kind: domain.IntentSelectOffer, Offer: text}, true
	}
	return domain.Intent{}, false
}

const startText = "💰 Заработай до нескольких тысяч рублей на реферальной системе известных банков!\n\n" +
	"💸Ты — оформляешь карту и получаешь бонус. Мы — получаем бонус за то, что привели тебя и сразу делимся с тобой.\n\n" +
	" • ✅ Карты продавать не надо\n" +
	" • ✅ Мы не берем никакие данные\n" +
	" • ✅ Выплаты сразу — в тот же день\n" +
	" • ✅ Без вложений\n" +
	" • ✅ 300+ успешных выплат\n" +
	" • ✅ Работаем уже полгода\n\n" +
	"🔻 Нажми «➡Далее» и забери своё первое задание прямо сейчас."

const stepText = "🧱 Как ты зарабатываешь деньги — шаг за шагом:\n\n" +
	"📌 1. Банк хочет клиента — ты им становишься\n" +
	" Ты оформляешь бесплатный продукт: карту, счёт или бонусную услугу через нашу ссылку.\n\n" +
	"📌 2. Мы получаем вознаграждение\n" +
	" Банк платит нам за твою регистрацию — это маркетинговый бюджет\n\n" +
	"📌 3. Мы платим тебе\n" +
	" Сразу в день выполнения. Без задержек. Без лишних вопросов."

const whyText = "💼 Почему это работает?\n\n" +
	"Банкам всё равно, будешь ли ты пользоваться их картой или нет.\n" +
	" Им важно одно — чтобы ты просто оформил карту.\n" +
	" За это они платят нам.\n" +
	" 👌А мы делимся деньгами с тобой."

const reportIntroText = "👉Если УЖЕ получил карту\n" +
	"👉Нажмите на кнопку ниже и отправьте\n" +
	"_________________________________\n" +
	"1️⃣Скриншот заказа карты с сайта\n" +
	"2️⃣Название банка карты, который заказали\n" +
	"3️⃣Номер телефона на который заказали карту, для выплаты"

const questionPromptText = "Напиши свой вопрос или отправь файл/скрин. " +
	"После отправки вопрос будет сохранен для админов."

func nextKeyboard() models.ReplyMarkup {
	return telegram.InlineKeyboard(
		telegram.ButtonRow(telegram.InlineButton(LabelNext, domain.TokenNext)),
	)
}

func actionsKeyboard() models.ReplyMarkup {
	return telegram.InlineKeyboard(
		telegram.ButtonRow(telegram.InlineButton(LabelStartEarn, domain.TokenStartEarn)),
		telegram.ButtonRow(telegram.InlineButton(LabelAsk, domain.TokenAsk)),
	)
}

func ageKeyboard() models.ReplyMarkup {
	return telegram.InlineKeyboard(
		telegram.ButtonRow(
			telegram.InlineButton(LabelAge14, domain.TokenAge14),
			telegram.InlineButton(LabelAge18, domain.TokenAge18),
		),
		telegram.ButtonRow(telegram.InlineButton(LabelAsk, domain.TokenAsk)),
	)
}

func offersKeyboard(age domain.AgeBracket) models.ReplyMarkup {
	otherAge := domain.Age18Plus
	if age == domain.Age18Plus {
		otherAge = domain.Age14Plus
	}

	var rows [][]models.InlineKeyboardButton
	for _, offer := range domain.OffersForAge(age) {
		rows = append(rows, telegram.ButtonRow(
			telegram.InlineButton(offer.Label, domain.CallbackOffer(offer.Label)),
		))
	}
	rows = append(rows,
		telegram.ButtonRow(telegram.InlineButton(LabelEmoji, domain.TokenEmoji)),
		telegram.ButtonRow(telegram.InlineButton(LabelOtherTasks, domain.TokenOtherTasks)),
		telegram.ButtonRow(telegram.InlineButton(LabelAsk, domain.TokenAsk)),
		telegram.ButtonRow(telegram.InlineButton(
			fmt.Sprintf("🔄 Показать задания %s", otherAge),
			domain.CallbackSwitchAge(otherAge),
		)),
	)
	return telegram.InlineKeyboard(rows...)
}

func mainMenuKeyboard() models.ReplyMarkup {
	return telegram.ReplyKeyboard(
		[]string{LabelProfile, LabelTasks},
		[]string{LabelReportCard},
		[]string{LabelReferral, LabelSupport},
		[]string{LabelReviews},
	)
}

func afterSendKeyboard() models.ReplyMarkup {
	return telegram.InlineKeyboard(
		telegram.ButtonRow(
			telegram.InlineButton("🏠 В главное меню", domain.TokenGoMain),
			telegram.InlineButton("📜 К заданиям", domain.TokenMenuTasks),
		),
	)
}

func cancelSupportKeyboard() models.ReplyMarkup {
	return telegram.InlineKeyboard(
		telegram.ButtonRow(telegram.InlineButton("❌ Отмена", domain.TokenCancelSupport)),
	)
}

func cancelReportKeyboard() models.ReplyMarkup {
	return telegram.InlineKeyboard(
		telegram.ButtonRow(telegram.InlineButton("❌ Отмена", domain.TokenCancelReport)),
	)
}

func startSupportKeyboard() models.ReplyMarkup {
	return telegram.InlineKeyboard(
		telegram.ButtonRow(telegram.InlineButton("✉️ Написать сообщение", domain.TokenStartSupport)),
		telegram.ButtonRow(telegram.InlineButton("❌ Отмена", domain.TokenCancelSupport)),
	)
}

func startReportKeyboard() models.ReplyMarkup {
	return telegram.InlineKeyboard(
		telegram.ButtonRow(telegram.InlineButton("✅ Подтвердить получение", domain.TokenStartReport)),
		telegram.ButtonRow(telegram.InlineButton("❌ Отмена", domain.TokenCancelReport)),
	)
}

func backToMainKeyboard() models.ReplyMarkup {
	return telegram.InlineKeyboard(
		telegram.ButtonRow(telegram.InlineButton("⬅️ Назад", domain.TokenGoMain)),
	)
}

func specialOfferKeyboard(label string) models.ReplyMarkup {
	return telegram.InlineKeyboard(
		telegram.ButtonRow(telegram.InlineButton("🚀 Начать выполнение", domain.CallbackStartTask(label))),
		telegram.ButtonRow(telegram.InlineButton("⬅️ Назад", domain.TokenBackToBanks)),
	)
}

func instructionKeyboard() models.ReplyMarkup {
	return telegram.InlineKeyboard(
		telegram.ButtonRow(telegram.InlineButton("✅ Карта заказана", domain.TokenCardOrdered)),
		telegram.ButtonRow(telegram.InlineButton("❌ Отказаться от выполнения", domain.TokenRefuseTask)),
	)
}

func startSurface(photoFileID string) Surface {
	return Surface{
		Text:        startText,
		PhotoFileID: photoFileID,
		Markup:      nextKeyboard(),
		Tracked:     true,
	}
}

func ageSurface() Surface {
	return Surface{Text: "Выберите ваш возраст:", Markup: ageKeyboard(), Tracked: true}
}

func offersSurface(age domain.AgeBracket) Surface {
	var b strings.Builder
	fmt.Fprintf(&b, "Доступные задания для %s:\n", age)
	for _, offer := range domain.OffersForAge(age) {
		fmt.Fprintf(&b, "\n• %s — выплата %s ₽", offer.Name, offer.Payout.StringFixed(0))
	}
	return Surface{
		Text:    b.String(),
		Markup:  offersKeyboard(age),
		Tracked: true,
	}
}

func mainMenuSurface() Surface {
	return Surface{Text: "Главное меню:", Markup: mainMenuKeyboard(), Tracked: true}
}

func commentPromptSurface() Surface {
	return Surface{
		Text:    "Добавь комментарий или условия (можно пропустить, отправив '-'):",
		Tracked: true,
	}
}

func evidencePromptSurface() Surface {
	return Surface{
		Text: "Отправь скрин/файл подтверждения. Можно пропустить, отправив слово 'нет'.",
	}
}

func questionPromptSurface() Surface {
	return Surface{Text: questionPromptText, Markup: cancelSupportKeyboard(), Tracked: true}
}

func reportPromptSurface() Surface {
	return Surface{
		Text:    "Отправь одним сообщением: скриншот заказа, название банка и номер телефона для выплаты.",
		Markup:  cancelReportKeyboard(),
		Tracked: true,
	}
}

func specialOfferSurface(offer domain.Offer) Surface {
	text := fmt.Sprintf(
		"%s\nВыплата: %s ₽\n\nНажми «Начать выполнение», чтобы получить инструкцию. "+
			"Если передумал — «Назад» вернет к списку карт.",
		offer.Label, offer.Payout.StringFixed(0),
	)
	return Surface{Text: text, Markup: specialOfferKeyboard(offer.Label), Tracked: true}
}

func instructionSurface(offer domain.Offer) Surface {
	return Surface{
		Text:    instructionText(offer),
		Markup:  instructionKeyboard(),
		Tracked: true,
	}
}

func instructionText(offer domain.Offer) string {
	if offer.Instruction == "tbank" {
		return fmt.Sprintf(
			"▌ Шаг 1: Переход по <a href=\"%s\">реферальной ссылке</a>\n\n"+
				"⎯⎯⎯⎯⎯⎯⎯⎯⎯⎯\n"+
				"▌ Шаг 2: Регистрация и заполнение анкеты\n\n"+
				"Введите ваши личные данные: ФИО, номер телефона, e-mail.\n"+
				"Заполните короткую анкету для выпуска карты.\n"+
				"⎯⎯⎯⎯⎯⎯⎯⎯⎯⎯\n"+
				"▌ Шаг 3: Ожидание одобрения\n\n"+
				"Банк проверит заявку. Обычно решение приходит быстро — уведомление появится в приложении или по SMS.\n"+
				"⎯⎯⎯⎯⎯⎯⎯⎯⎯⎯\n"+
				"▌ Шаг 4: Выбор способа доставки карты\n\n"+
				"Т-Банк предложит удобный способ получения карты:\n"+
				"Курьерская доставка на дом или в офис.\n"+
				"Самовывоз в одном из пунктов выдачи.\n"+
				"⎯⎯⎯⎯⎯⎯⎯⎯⎯⎯\n"+
				"▌ Шаг 5: Активация карты\n\n"+
				"После получения карты активируйте её через приложение Т-Банка. Это откроет доступ ко всем функциям и бонусам.\n"+
				"⎯⎯⎯⎯⎯⎯⎯⎯⎯⎯\n"+
				"▌ Шаг 6: Выполнение ТЗ от банка (для получения бонуса)\n\n"+
				"Совершить покупку по карте хоть на 1 рубль\n\n"+
				"Важно: операция должна быть офлайн или обычной онлайн-покупкой — переводы и снятие наличных не учитываются.",
			offer.Link,
		)
	}

	return fmt.Sprintf(
		"▌ Инструкция по оформлению дебетовой карты %s по реферальной ссылке\n\n"+
			"⎯⎯⎯⎯⎯⎯⎯⎯⎯⎯\n"+
			"▌ Шаг 1: Переход по <a href=\"%s\">реферальной ссылке</a>\n\n"+
			"⎯⎯⎯⎯⎯⎯⎯⎯⎯⎯\n"+
			"▌ Шаг 2: Регистрация и заполнение анкеты\n\n"+
			"- Регистрация: Укажите ваши личные данные (ФИО, номер телефона, электронную почту).\n"+
			"⎯⎯⎯⎯⎯⎯⎯⎯⎯⎯\n"+
			"▌ Шаг 3: Ожидание одобрения\n\n"+
			"Банк проверит вашу заявку. Обычно решение принимается достаточно быстро. "+
			"После подтверждения вам поступит уведомление о статусе вашей заявки.\n\n"+
			"⎯⎯⎯⎯⎯⎯⎯⎯⎯⎯\n"+
			"▌ Шаг 4: Выбор способа доставки карты\n\n"+
			"- Доставка курьером домой или в офис.\n"+
			"- Самовывоз в ближайшем отделении банка.\n\n"+
			"⎯⎯⎯⎯⎯⎯⎯⎯⎯⎯\n"+
			"▌ Шаг 5: Активация карты\n\n"+
			"Получив карту, активируйте её через мобильное приложение или банкомат. "+
			"Это позволит начать пользоваться преимуществами карты.\n\n"+
			"⎯⎯⎯⎯⎯⎯⎯⎯⎯⎯\n"+
			"▌ Шаг 6: Выполнение ТЗ от банка\n\n"+
			"- Совершите любую покупку от 1 рубля\n\n"+
			"ВАЖНО❗️: Покупка, сделанная онлайн, не будет засчитана.",
		offer.Name, offer.Link,
	)
}
