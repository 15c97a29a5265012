package dav

import (
	"context"
	"fmt"
	"path"

	"github.com/emersion/go-vcard"
	"github.com/emersion/go-webdav/carddav"
	"github.com/google/uuid"

	"davmcp/internal/domain"
)

// AddressBookInfo describes one address book collection.
type AddressBookInfo struct {
	Path        string
	Name        string
	Description string
}

// Contact is the facade's view of a vCard.
type Contact struct {
	UID      string
	FullName string
	Email    string
	Phone    string
}

// ensureContacts raises when the server exposed no address book home set.
func (c *Client) ensureContacts() error {
	if err := c.ensure(); err != nil {
		return err
	}
	if c.cardHome == "" {
		return fmt.Errorf("server exposes no address book home set: %w", domain.ErrNotConfigured)
	}
	return nil
}

// FindAddressBooks lists the address books under the user's home set.
func (c *Client) FindAddressBooks(ctx context.Context) ([]AddressBookInfo, error) {
	if err := c.ensureContacts(); err != nil {
		return nil, err
	}
	books, err := c.card.FindAddressBooks(ctx, c.cardHome)
	if err != nil {
		return nil, classify("find address books", err)
	}
	out := make([]AddressBookInfo, 0, len(books))
	for _, b := range books {
		out = append(out, AddressBookInfo{
			Path:        b.Path,
			Name:        b.Name,
			Description: b.Description,
		})
	}
	return out, nil
}

// ListContacts queries all vCards in an address book.
func (c *Client) ListContacts(ctx context.Context, bookPath string) ([]Contact, error) {
	if err := c.ensureContacts(); err != nil {
		return nil, err
	}
	objs, err := c.queryContacts(ctx, bookPath)
	if err != nil {
		return nil, err
	}
	contacts := make([]Contact, 0, len(objs))
	for _, obj := range objs {
		contacts = append(contacts, decodeContact(obj.Card))
	}
	return contacts, nil
}

// CreateContact stores a new vCard and returns its generated UID.
func (c *Client) CreateContact(ctx context.Context, bookPath string, contact Contact) (string, error) {
	if err := c.ensureContacts(); err != nil {
		return "", err
	}
	uid := uuid.NewString()
	card := make(vcard.Card)
	card.SetValue(vcard.FieldUID, uid)
	card.SetValue(vcard.FieldFormattedName, contact.FullName)
	if contact.Email != "" {
		card.SetValue(vcard.FieldEmail, contact.Email)
	}
	if contact.Phone != "" {
		card.SetValue(vcard.FieldTelephone, contact.Phone)
	}
	vcard.ToV4(card)

	objPath := path.Join(bookPath, uid+".vcf")
	if _, err := c.card.PutAddressObject(ctx, objPath, card); err != nil {
		return "", classify("put contact", err)
	}
	return uid, nil
}

// UpdateContact fetches the vCard with the given UID, applies the non-empty
// fields of patch, and stores it back.
func (c *Client) UpdateContact(ctx context.Context, bookPath, uid string, patch Contact) error {
	if err := c.ensureContacts(); err != nil {
		return err
	}
	obj, err := c.findContact(ctx, bookPath, uid)
	if err != nil {
		return err
	}

	if patch.FullName != "" {
		obj.Card.SetValue(vcard.FieldFormattedName, patch.FullName)
	}
	if patch.Email != "" {
		obj.Card.SetValue(vcard.FieldEmail, patch.Email)
	}
	if patch.Phone != "" {
		obj.Card.SetValue(vcard.FieldTelephone, patch.Phone)
	}
	vcard.ToV4(obj.Card)

	if _, err := c.card.PutAddressObject(ctx, obj.Path, obj.Card); err != nil {
		return classify("put contact", err)
	}
	return nil
}

// DeleteContact removes the vCard with the given UID.
func (c *Client) DeleteContact(ctx context.Context, bookPath, uid string) error {
	if err := c.ensureContacts(); err != nil {
		return err
	}
	obj, err := c.findContact(ctx, bookPath, uid)
	if err != nil {
		return err
	}
	if err := c.card.RemoveAll(ctx, obj.Path); err != nil {
		return classify("delete contact", err)
	}
	return nil
}

func (c *Client) queryContacts(ctx context.Context, bookPath string) ([]carddav.AddressObject, error) {
	query := &carddav.AddressBookQuery{
		DataRequest: carddav.AddressDataRequest{AllProp: true},
	}
	objs, err := c.card.QueryAddressBook(ctx, bookPath, query)
	if err != nil {
		return nil, classify("query address book", err)
	}
	return objs, nil
}

func (c *Client) findContact(ctx context.Context, bookPath, uid string) (*carddav.AddressObject, error) {
	objs, err := c.queryContacts(ctx, bookPath)
	if err != nil {
		return nil, err
	}
	for i := range objs {
		if objs[i].Card.Value(vcard.FieldUID) == uid {
			return &objs[i], nil
		}
	}
	return nil, fmt.Errorf("contact with uid %q in %s: %w", uid, bookPath, domain.ErrObjectNotFound)
}

func decodeContact(card vcard.Card) Contact {
	return Contact{
		UID:      card.Value(vcard.FieldUID),
		FullName: card.PreferredValue(vcard.FieldFormattedName),
		Email:    card.PreferredValue(vcard.FieldEmail),
		Phone:    card.PreferredValue(vcard.FieldTelephone),
	}
}
