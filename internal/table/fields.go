// Package table implements the row store adapter: a tabular backend behind
// the Store interface, header-based column resolution, and a buffered writer
// that batches and throttles cell updates against the store's rate limits.
package table

// Field names one logical column of the news table.
type Field string

// Logical fields of a news row.
const (
	FieldID            Field = "id"
	FieldCreatedAt     Field = "created_at"
	FieldCategory      Field = "category"
	FieldSource        Field = "source"
	FieldLanguage      Field = "language"
	FieldOrigTitle     Field = "original_title"
	FieldLink          Field = "link"
	FieldTitle         Field = "title"
	FieldSummary       Field = "summary"
	FieldLongText      Field = "long_text"
	FieldOrigImage     Field = "original_image"
	FieldWebImage      Field = "web_image"
	FieldTelegramImage Field = "telegram_image"
	FieldSocialImage   Field = "social_image"
	FieldShortAudio    Field = "short_audio"
	FieldLongAudio     Field = "long_audio"
	FieldStatus        Field = "status"
	FieldNotes         Field = "notes"
	FieldTelegramPost  Field = "telegram_post"
	FieldXPost         Field = "x_post"
	FieldBlueskyPost   Field = "bluesky_post"
)

// column describes one canonical column: its field, header text and
// fallback position when the header cannot be found at all.
type column struct {
	field   Field
	header  string
	aliases []string
}

// canonicalColumns is the canonical schema, in positional order. The
// position in this slice (1-based) is the fallback column guess when a
// header is missing entirely.
var canonicalColumns = []column{
	{field: FieldID, header: "News ID", aliases: []string{"ID", "Haber ID"}},
	{field: FieldCreatedAt, header: "Created At", aliases: []string{"Date", "Tarih/Saat"}},
	{field: FieldCategory, header: "Category", aliases: []string{"Main Category", "Ana Kategori"}},
	{field: FieldSource, header: "Source", aliases: []string{"Feed", "Alt Kategori/Kaynak"}},
	{field: FieldLanguage, header: "Language", aliases: []string{"Lang", "Orijinal Dil"}},
	{field: FieldOrigTitle, header: "Original Title", aliases: []string{"Orijinal Başlık"}},
	{field: FieldLink, header: "Original Link", aliases: []string{"Link", "URL", "Orijinal Link"}},
	{field: FieldTitle, header: "New Title", aliases: []string{"Generated Title", "Yeni Başlık"}},
	{field: FieldSummary, header: "Summary", aliases: []string{"Özet"}},
	{field: FieldLongText, header: "Long Text", aliases: []string{"Article", "Content", "Body", "Uzun Metin"}},
	{field: FieldOrigImage, header: "Original Image", aliases: []string{"Image", "Görsel Link"}},
	{field: FieldWebImage, header: "Web Image"},
	{field: FieldTelegramImage, header: "Telegram Image"},
	{field: FieldSocialImage, header: "Social Image"},
	{field: FieldShortAudio, header: "Short Audio", aliases: []string{"Kısa Ses"}},
	{field: FieldLongAudio, header: "Long Audio", aliases: []string{"Uzun Ses"}},
	{field: FieldStatus, header: "Status", aliases: []string{"State", "Durum"}},
	{field: FieldNotes, header: "Notes", aliases: []string{"Note", "Remarks", "Notlar"}},
	{field: FieldTelegramPost, header: "Telegram Post"},
	{field: FieldXPost, header: "X Post", aliases: []string{"Twitter Post"}},
	{field: FieldBlueskyPost, header: "Bluesky Post"},
}
