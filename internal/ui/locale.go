// internal/ui/locale.go
package ui

// Locales supported by the /setup command.
const (
	LocaleEnglish = "en"
	LocaleRussian = "ru"
)

type strings_ struct {
	NowPlaying       string
	NothingPlaying   string
	NothingHintName  string
	NothingHintValue string
	Queue            string
	QueueEmptyName   string
	QueueEmptyValue  string
	QueueMore        string
	History          string
	HistoryEmptyName string
	RequestedBy      string
	BtnAdd           string
	BtnSkip          string
	BtnDisconnect    string
	BtnHistory       string
}

var locales = map[string]strings_{
	LocaleEnglish: {
		NowPlaying:       "Now playing",
		NothingPlaying:   "Nothing is playing right now",
		NothingHintName:  "Hint:",
		NothingHintValue: "Use the **\"Add\"** button to play a track.",
		Queue:            "Queue",
		QueueEmptyName:   "The queue is empty.",
		QueueEmptyValue:  "Press the **\"Add\"** button to queue a track.",
		QueueMore:        "…and %d more",
		History:          "Recently played",
		HistoryEmptyName: "Nothing in the history yet.",
		RequestedBy:      "Requested by",
		BtnAdd:           "Add",
		BtnSkip:          "Skip",
		BtnDisconnect:    "Disconnect",
		BtnHistory:       "History",
	},
	LocaleRussian: {
		NowPlaying:       "Сейчас играет",
		NothingPlaying:   "Сейчас ничего не играет",
		NothingHintName:  "Подсказка:",
		NothingHintValue: "Чтобы воспроизвести трек, воспользуйтесь кнопкой **\"Добавить\"**.",
		Queue:            "Очередь",
		QueueEmptyName:   "В очереди ничего нет.",
		QueueEmptyValue:  "Чтобы добавить трек в очередь, нажмите на кнопку **\"Добавить\"**.",
		QueueMore:        "…и ещё %d",
		History:          "Недавнее",
		HistoryEmptyName: "В истории ничего нет.",
		RequestedBy:      "Заказал",
		BtnAdd:           "Добавить",
		BtnSkip:          "Пропустить",
		BtnDisconnect:    "Отключить",
		BtnHistory:       "Недавнее",
	},
}

func localized(locale string) strings_ {
	if s, ok := locales[locale]; ok {
		return s
	}
	return locales[LocaleEnglish]
}
