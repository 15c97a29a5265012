package tool

import (
	"context"
	"fmt"
	"strings"

	"davmcp/internal/dav"
	"davmcp/internal/domain"
)

// ContactTools returns the address book tool group.
func ContactTools(client *dav.Client) []domain.Tool {
	return []domain.Tool{
		NewListAddressBooksTool(client),
		NewListContactsTool(client),
		NewCreateContactTool(client),
		NewUpdateContactTool(client),
		NewDeleteContactTool(client),
	}
}

// --- list_address_books ---

type ListAddressBooksTool struct {
	client *dav.Client
}

func NewListAddressBooksTool(client *dav.Client) *ListAddressBooksTool {
	return &ListAddressBooksTool{client: client}
}

func (t *ListAddressBooksTool) Name() string { return "list_address_books" }
func (t *ListAddressBooksTool) Description() string {
	return "List all address books on the server with their paths and names."
}
func (t *ListAddressBooksTool) Parameters() map[string]any { return ToolParameters(nil, nil) }
func (t *ListAddressBooksTool) Category() string           { return domain.CategoryContact }
func (t *ListAddressBooksTool) RequiresRemote() bool       { return false }

func (t *ListAddressBooksTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	books, err := t.client.FindAddressBooks(ctx)
	if err != nil {
		return "", err
	}
	if len(books) == 0 {
		return "No address books found.", nil
	}
	return formatAddressBooks(books), nil
}

func formatAddressBooks(books []dav.AddressBookInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d address book(s):\n", len(books))
	for _, b := range books {
		fmt.Fprintf(&sb, "- %s (path: %s)", b.Name, b.Path)
		if b.Description != "" {
			fmt.Fprintf(&sb, ": %s", b.Description)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// --- list_contacts ---

type ListContactsTool struct {
	client *dav.Client
}

func NewListContactsTool(client *dav.Client) *ListContactsTool {
	return &ListContactsTool{client: client}
}

func (t *ListContactsTool) Name() string { return "list_contacts" }
func (t *ListContactsTool) Description() string {
	return "List all contacts in an address book."
}
func (t *ListContactsTool) Parameters() map[string]any {
	return ToolParameters(map[string]Param{
		"addressbook_path": {Type: "string", Description: "Path of the address book, as returned by list_address_books"},
	}, []string{"addressbook_path"})
}
func (t *ListContactsTool) Category() string     { return domain.CategoryContact }
func (t *ListContactsTool) RequiresRemote() bool { return false }

func (t *ListContactsTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	bookPath, err := requireArg(args, "addressbook_path")
	if err != nil {
		return "", err
	}
	contacts, err := t.client.ListContacts(ctx, bookPath)
	if err != nil {
		return "", err
	}
	if len(contacts) == 0 {
		return "No contacts found.", nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d contact(s):\n", len(contacts))
	for _, c := range contacts {
		fmt.Fprintf(&sb, "- [%s] %s", c.UID, c.FullName)
		if c.Email != "" {
			fmt.Fprintf(&sb, " <%s>", c.Email)
		}
		if c.Phone != "" {
			fmt.Fprintf(&sb, " tel:%s", c.Phone)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// --- create_contact ---

type CreateContactTool struct {
	client *dav.Client
}

func NewCreateContactTool(client *dav.Client) *CreateContactTool {
	return &CreateContactTool{client: client}
}

func (t *CreateContactTool) Name() string { return "create_contact" }
func (t *CreateContactTool) Description() string {
	return "Create a contact in an address book. Returns the UID of the new contact."
}
func (t *CreateContactTool) Parameters() map[string]any {
	return ToolParameters(map[string]Param{
		"addressbook_path": {Type: "string", Description: "Path of the target address book"},
		"full_name":        {Type: "string", Description: "Formatted full name"},
		"email":            {Type: "string", Description: "Email address (optional)"},
		"phone":            {Type: "string", Description: "Phone number (optional)"},
	}, []string{"addressbook_path", "full_name"})
}
func (t *CreateContactTool) Category() string     { return domain.CategoryContact }
func (t *CreateContactTool) RequiresRemote() bool { return true }

func (t *CreateContactTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	bookPath, err := requireArg(args, "addressbook_path")
	if err != nil {
		return "", err
	}
	fullName, err := requireArg(args, "full_name")
	if err != nil {
		return "", err
	}
	uid, err := t.client.CreateContact(ctx, bookPath, dav.Contact{
		FullName: fullName,
		Email:    ArgsString(args, "email"),
		Phone:    ArgsString(args, "phone"),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Contact created with UID %s", uid), nil
}

// --- update_contact ---

type UpdateContactTool struct {
	client *dav.Client
}

func NewUpdateContactTool(client *dav.Client) *UpdateContactTool {
	return &UpdateContactTool{client: client}
}

func (t *UpdateContactTool) Name() string { return "update_contact" }
func (t *UpdateContactTool) Description() string {
	return "Update fields of an existing contact identified by UID. Omitted fields are left unchanged."
}
func (t *UpdateContactTool) Parameters() map[string]any {
	return ToolParameters(map[string]Param{
		"addressbook_path": {Type: "string", Description: "Path of the address book containing the contact"},
		"uid":              {Type: "string", Description: "UID of the contact to update"},
		"full_name":        {Type: "string", Description: "New formatted full name (optional)"},
		"email":            {Type: "string", Description: "New email address (optional)"},
		"phone":            {Type: "string", Description: "New phone number (optional)"},
	}, []string{"addressbook_path", "uid"})
}
func (t *UpdateContactTool) Category() string     { return domain.CategoryContact }
func (t *UpdateContactTool) RequiresRemote() bool { return true }

func (t *UpdateContactTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	bookPath, err := requireArg(args, "addressbook_path")
	if err != nil {
		return "", err
	}
	uid, err := requireArg(args, "uid")
	if err != nil {
		return "", err
	}
	patch := dav.Contact{
		FullName: ArgsString(args, "full_name"),
		Email:    ArgsString(args, "email"),
		Phone:    ArgsString(args, "phone"),
	}
	if err := t.client.UpdateContact(ctx, bookPath, uid, patch); err != nil {
		return "", err
	}
	return fmt.Sprintf("Contact %s updated", uid), nil
}

// --- delete_contact ---

type DeleteContactTool struct {
	client *dav.Client
}

func NewDeleteContactTool(client *dav.Client) *DeleteContactTool {
	return &DeleteContactTool{client: client}
}

func (t *DeleteContactTool) Name() string { return "delete_contact" }
func (t *DeleteContactTool) Description() string {
	return "Delete a contact identified by UID from an address book."
}
func (t *DeleteContactTool) Parameters() map[string]any {
	return ToolParameters(map[string]Param{
		"addressbook_path": {Type: "string", Description: "Path of the address book containing the contact"},
		"uid":              {Type: "string", Description: "UID of the contact to delete"},
	}, []string{"addressbook_path", "uid"})
}
func (t *DeleteContactTool) Category() string     { return domain.CategoryContact }
func (t *DeleteContactTool) RequiresRemote() bool { return true }

func (t *DeleteContactTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	bookPath, err := requireArg(args, "addressbook_path")
	if err != nil {
		return "", err
	}
	uid, err := requireArg(args, "uid")
	if err != nil {
		return "", err
	}
	if err := t.client.DeleteContact(ctx, bookPath, uid); err != nil {
		return "", err
	}
	return fmt.Sprintf("Contact %s deleted", uid), nil
}
