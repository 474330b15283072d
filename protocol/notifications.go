package protocol

import "google.golang.org/protobuf/encoding/protowire"

// Notification is one entry of CMsgClientUserNotifications, grounded on the
// teacher's steamclient/notifications.go handling of EMsgClientUserNotifications.
type Notification struct {
	UserNotificationType *uint32
	Count                *uint32
}

func (m *Notification) GetUserNotificationType() uint32 {
	if m == nil || m.UserNotificationType == nil {
		return 0
	}
	return *m.UserNotificationType
}

func (m *Notification) GetCount() uint32 {
	if m == nil || m.Count == nil {
		return 0
	}
	return *m.Count
}

func (m *Notification) Marshal() ([]byte, error) {
	var b []byte
	b = appendUint32(b, 1, m.UserNotificationType)
	b = appendUint32(b, 2, m.Count)
	return b, nil
}

func (m *Notification) Unmarshal(data []byte) error {
	return unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setUint32(&m.UserNotificationType),
		2: setUint32(&m.Count),
	})
}

type CMsgClientUserNotifications struct {
	Notifications []*Notification
}

func (m *CMsgClientUserNotifications) Marshal() ([]byte, error) {
	return appendRepeatedMessage([]byte(nil), 1, m.Notifications)
}

func (m *CMsgClientUserNotifications) Unmarshal(data []byte) error {
	return unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setRepeatedMessage(&m.Notifications,
			func() *Notification { return &Notification{} },
			func(e *Notification, b []byte) error { return e.Unmarshal(b) }),
	})
}

// CMsgClientItemAnnouncements (trade/item push notifications).
type CMsgClientItemAnnouncements struct {
	CountNewItems       *uint32
	CountNewItemsByType []*ItemAnnouncementCount
}

func (m *CMsgClientItemAnnouncements) GetCountNewItems() uint32 {
	if m == nil || m.CountNewItems == nil {
		return 0
	}
	return *m.CountNewItems
}

func (m *CMsgClientItemAnnouncements) Marshal() ([]byte, error) {
	var b []byte
	b = appendUint32(b, 1, m.CountNewItems)
	b, err := appendRepeatedMessage(b, 2, m.CountNewItemsByType)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (m *CMsgClientItemAnnouncements) Unmarshal(data []byte) error {
	return unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setUint32(&m.CountNewItems),
		2: setRepeatedMessage(&m.CountNewItemsByType,
			func() *ItemAnnouncementCount { return &ItemAnnouncementCount{} },
			func(e *ItemAnnouncementCount, b []byte) error { return e.Unmarshal(b) }),
	})
}

type ItemAnnouncementCount struct {
	AppId   *uint32
	Count   *uint32
}

func (m *ItemAnnouncementCount) Marshal() ([]byte, error) {
	var b []byte
	b = appendUint32(b, 1, m.AppId)
	b = appendUint32(b, 2, m.Count)
	return b, nil
}

func (m *ItemAnnouncementCount) Unmarshal(data []byte) error {
	return unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setUint32(&m.AppId),
		2: setUint32(&m.Count),
	})
}
