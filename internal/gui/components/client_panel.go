package components

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

// ClientHandlers receives every action of the client tab
type ClientHandlers struct {
	Connect           func()
	Disconnect        func()
	SetMessage        func(string)
	SetSubscribeTopic func(string)
	SetSubscribeQoS   func(string)
	Publish           func()
	Subscribe         func()
	ClearPublished    func()
	ClearReceived     func()
	MinimizeToTray    func()
}

type ClientPanel struct {
	container *fyne.Container
	handlers  ClientHandlers

	Indicator *ConnectionIndicator
	Published *MessageLog
	Received  *MessageLog

	ConnectButton    *widget.Button
	DisconnectButton *widget.Button
	MinimizeButton   *widget.Button
	PublishButton    *widget.Button
	SubscribeButton  *widget.Button

	MessageEntry *widget.Entry
	TopicEntry   *widget.Entry
	QoSSelect    *widget.Select
}

func NewClientPanel(logLimit int) *ClientPanel {
	cp := &ClientPanel{
		Indicator: NewConnectionIndicator(),
		Published: NewMessageLog("Sent Messages", logLimit),
		Received:  NewMessageLog("Received Messages", logLimit),
	}
	cp.setupPanel()
	return cp
}

func (cp *ClientPanel) setupPanel() {
	cp.ConnectButton = widget.NewButton("Connect", cp.fire(func() func() { return cp.handlers.Connect }))
	cp.ConnectButton.Importance = widget.HighImportance
	cp.DisconnectButton = widget.NewButton("Disconnect", cp.fire(func() func() { return cp.handlers.Disconnect }))
	cp.MinimizeButton = widget.NewButton("Minimize To Tray", cp.fire(func() func() { return cp.handlers.MinimizeToTray }))

	connection := container.NewHBox(
		cp.ConnectButton,
		cp.DisconnectButton,
		layout.NewSpacer(),
		cp.Indicator.GetContainer(),
		layout.NewSpacer(),
		cp.MinimizeButton,
	)

	cp.MessageEntry = widget.NewEntry()
	cp.MessageEntry.SetPlaceHolder("Message")
	setMessage := func() {
		if cp.handlers.SetMessage != nil {
			cp.handlers.SetMessage(cp.MessageEntry.Text)
		}
	}
	cp.MessageEntry.OnSubmitted = func(string) { setMessage() }

	cp.TopicEntry = widget.NewEntry()
	cp.TopicEntry.SetPlaceHolder("Subscribe Topic")
	setTopic := func() {
		if cp.handlers.SetSubscribeTopic != nil {
			cp.handlers.SetSubscribeTopic(cp.TopicEntry.Text)
		}
	}
	cp.TopicEntry.OnSubmitted = func(string) { setTopic() }

	cp.QoSSelect = widget.NewSelect(QoSOptions, func(value string) {
		if cp.handlers.SetSubscribeQoS != nil {
			cp.handlers.SetSubscribeQoS(value)
		}
	})
	cp.QoSSelect.PlaceHolder = "QoS"

	cp.PublishButton = widget.NewButton("Publish", cp.fire(func() func() { return cp.handlers.Publish }))
	cp.SubscribeButton = widget.NewButton("Subscribe", cp.fire(func() func() { return cp.handlers.Subscribe }))

	publishRow := container.NewBorder(nil, nil, nil,
		container.NewHBox(widget.NewButton("Set Message", setMessage), cp.PublishButton),
		cp.MessageEntry,
	)
	subscribeRow := container.NewBorder(nil, nil, nil,
		container.NewHBox(widget.NewButton("Set Topic", setTopic), cp.QoSSelect, cp.SubscribeButton),
		cp.TopicEntry,
	)

	cp.Published.SetClearHandler(func() {
		if cp.handlers.ClearPublished != nil {
			cp.handlers.ClearPublished()
		}
	})
	cp.Received.SetClearHandler(func() {
		if cp.handlers.ClearReceived != nil {
			cp.handlers.ClearReceived()
		}
	})

	logs := container.NewGridWithColumns(2,
		cp.Published.GetContainer(),
		cp.Received.GetContainer(),
	)

	cp.container = container.NewBorder(
		container.NewVBox(connection, widget.NewSeparator(), publishRow, subscribeRow),
		nil, nil, nil,
		logs,
	)
}

// fire resolves the handler at click time so SetHandlers can run after construction
func (cp *ClientPanel) fire(handler func() func()) func() {
	return func() {
		if h := handler(); h != nil {
			h()
		}
	}
}

func (cp *ClientPanel) GetContainer() *fyne.Container {
	return cp.container
}

func (cp *ClientPanel) SetHandlers(handlers ClientHandlers) {
	cp.handlers = handlers
}

func (cp *ClientPanel) SetConnected(connected bool) {
	cp.Indicator.SetConnected(connected)
}
