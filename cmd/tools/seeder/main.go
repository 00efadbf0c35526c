package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedUsers(db)
	catIDs := seedCategories(db)
	seedProducts(db, catIDs)
	seedLocations(db)
	seedFAQs(db)

	log.Println("Seeding completed successfully!")
}

func seedUsers(db *sql.DB) {
	users := []struct {
		Username string
		Name     string
		Email    string
		Phone    string
		Roles    []string
	}{
		{"admin", "PC Nexus Admin", "admin@pcnexus.com.bd", "01700000000", []string{"customer", "admin"}},
		{"rahim", "Rahim Uddin", "rahim@example.com", "01711111111", []string{"customer"}},
		{"karim", "Karim Hossain", "karim@example.com", "01822222222", []string{"customer"}},
		{"nusrat", "Nusrat Jahan", "nusrat@example.com", "01933333333", []string{"customer"}},
	}

	hash, err := argon2id.CreateHash("password123", argon2id.DefaultParams)
	if err != nil {
		log.Fatalf("Failed to hash seed password: %v", err)
	}

	fmt.Println("Seeding Users...")
	for _, u := range users {
		_, err := db.Exec(`
			INSERT INTO users (id, username, email, phone, full_name, password_hash, roles)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (email) DO NOTHING;
		`, uuid.New(), u.Username, u.Email, u.Phone, u.Name, hash, pq.Array(u.Roles))
		if err != nil {
			log.Printf("Failed to seed user %s: %v", u.Email, err)
		}
	}
}

func seedCategories(db *sql.DB) map[string]string {
	categories := []struct {
		Name string
		Slug string
		Icon string
	}{
		{"Processors", "processors", "fas fa-microchip"},
		{"Graphics Cards", "graphics-cards", "fas fa-tv"},
		{"Memory", "memory", "fas fa-memory"},
		{"Storage", "storage", "fas fa-hdd"},
		{"Motherboards", "motherboards", "fas fa-server"},
		{"Power Supplies", "power-supplies", "fas fa-plug"},
		{"Monitors", "monitors", "fas fa-desktop"},
		{"Laptops", "laptops", "fas fa-laptop"},
	}

	fmt.Println("Seeding Categories...")
	catIDs := make(map[string]string)
	for _, c := range categories {
		var id string
		err := db.QueryRow(`
			INSERT INTO categories (id, name, slug, icon, description)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, icon = EXCLUDED.icon
			RETURNING id;
		`, uuid.New(), c.Name, c.Slug, c.Icon, fmt.Sprintf("Genuine %s with official warranty in Bangladesh.", c.Name)).Scan(&id)
		if err != nil {
			log.Printf("Failed to upsert category %s: %v", c.Name, err)
			continue
		}
		catIDs[c.Slug] = id
	}
	return catIDs
}

func seedProducts(db *sql.DB, catIDs map[string]string) {
	products := []struct {
		Category   string
		Name       string
		Slug       string
		Brand      string
		Model      string
		Warranty   string
		Price      string
		Discount   int
		Stock      int
		Featured   bool
		BestSeller bool
		NewArrival bool
	}{
		{"processors", "AMD Ryzen 5 7600 Processor", "amd-ryzen-5-7600", "AMD", "7600", "3", "24500", 0, 25, true, true, false},
		{"processors", "Intel Core i5-13400F Processor", "intel-core-i5-13400f", "Intel", "i5-13400F", "3", "23800", 5, 18, false, true, false},
		{"graphics-cards", "MSI GeForce RTX 4060 Ventus 2X 8GB", "msi-rtx-4060-ventus-2x", "MSI", "RTX 4060", "3", "39500", 10, 6, true, false, true},
		{"graphics-cards", "Sapphire Pulse Radeon RX 7600 8GB", "sapphire-pulse-rx-7600", "Sapphire", "RX 7600", "2", "34000", 0, 3, false, false, true},
		{"memory", "Corsair Vengeance 16GB DDR5 5600MHz", "corsair-vengeance-16gb-ddr5", "Corsair", "CMK16GX5M1B5600C40", "lifetime", "6200", 0, 40, false, true, false},
		{"storage", "Samsung 980 Pro 1TB NVMe SSD", "samsung-980-pro-1tb", "Samsung", "MZ-V8P1T0", "5", "11500", 8, 15, true, true, false},
		{"storage", "WD Blue 2TB HDD", "wd-blue-2tb-hdd", "Western Digital", "WD20EZBX", "2", "6900", 0, 0, false, false, false},
		{"motherboards", "MSI B650M Gaming WiFi Motherboard", "msi-b650m-gaming-wifi", "MSI", "B650M", "3", "18500", 0, 9, false, false, true},
		{"power-supplies", "Corsair RM750e 750W 80+ Gold", "corsair-rm750e", "Corsair", "RM750e", "7", "11800", 12, 12, true, false, false},
		{"monitors", "Gigabyte G24F 2 24\" 165Hz Monitor", "gigabyte-g24f-2", "Gigabyte", "G24F 2", "3", "17500", 0, 7, true, false, true},
		{"laptops", "ASUS TUF Gaming A15 Ryzen 7 RTX 4050", "asus-tuf-a15-rtx-4050", "ASUS", "FA507NU", "2", "125000", 4, 4, true, true, true},
	}

	fmt.Println("Seeding Products...")
	for _, p := range products {
		catID, ok := catIDs[p.Category]
		if !ok {
			log.Printf("Skipping product %s: category %s missing", p.Slug, p.Category)
			continue
		}
		_, err := db.Exec(`
			INSERT INTO products (id, category_id, name, slug, description, brand, model, warranty,
				price_bdt, discount_percentage, stock_quantity, is_featured, is_best_seller, is_new_arrival)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (slug) DO UPDATE SET
				price_bdt = EXCLUDED.price_bdt,
				discount_percentage = EXCLUDED.discount_percentage,
				stock_quantity = EXCLUDED.stock_quantity,
				updated_at = now();
		`, uuid.New(), catID, p.Name, p.Slug, p.Name+" available at PC Nexus with nationwide delivery.",
			p.Brand, p.Model, p.Warranty, p.Price, p.Discount, p.Stock, p.Featured, p.BestSeller, p.NewArrival)
		if err != nil {
			log.Printf("Failed to seed product %s: %v", p.Slug, err)
		}
	}
}

func seedLocations(db *sql.DB) {
	locations := []struct {
		Division string
		District string
		Upazila  string
		Cost     string
		ETA      string
	}{
		{"dhaka", "dhaka", "gulshan", "60", "1-2 business days"},
		{"dhaka", "dhaka", "dhanmondi", "60", "1-2 business days"},
		{"dhaka", "dhaka", "mirpur", "60", "1-2 business days"},
		{"dhaka", "gazipur", "tongi", "90", "2-3 business days"},
		{"dhaka", "narayanganj", "fatullah", "90", "2-3 business days"},
		{"chittagong", "chittagong", "panchlaish", "110", "2-4 business days"},
		{"chittagong", "cox's bazar", "cox's bazar sadar", "150", "3-5 business days"},
		{"sylhet", "sylhet", "sylhet sadar", "130", "3-5 business days"},
		{"khulna", "khulna", "khulna sadar", "130", "3-5 business days"},
		{"rajshahi", "rajshahi", "boalia", "130", "3-5 business days"},
		{"barisal", "barisal", "barisal sadar", "140", "4-6 business days"},
		{"rangpur", "rangpur", "rangpur sadar", "140", "4-6 business days"},
		{"mymensingh", "mymensingh", "mymensingh sadar", "120", "3-5 business days"},
	}

	fmt.Println("Seeding Shipping Locations...")
	for _, l := range locations {
		_, err := db.Exec(`
			INSERT INTO bangladesh_locations (id, division, district, upazila, shipping_cost, delivery_time)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT ((lower(division)), (lower(district)), (lower(upazila)))
			DO UPDATE SET shipping_cost = EXCLUDED.shipping_cost, delivery_time = EXCLUDED.delivery_time;
		`, uuid.New(), l.Division, l.District, l.Upazila, l.Cost, l.ETA)
		if err != nil {
			log.Printf("Failed to seed location %s/%s/%s: %v", l.Division, l.District, l.Upazila, err)
		}
	}
}

func seedFAQs(db *sql.DB) {
	faqs := []struct {
		Question string
		Answer   string
	}{
		{"Do you deliver outside Dhaka?", "Yes, we deliver to all 64 districts. Delivery charges depend on your upazila."},
		{"Which payment methods do you accept?", "Cash on Delivery, bKash, Nagad, Rocket, cards and bank transfer."},
		{"Is VAT included in product prices?", "No. 15% VAT is added to the order subtotal at checkout."},
		{"How do I claim warranty?", "Bring the product with its invoice to any PC Nexus branch within the warranty period."},
	}

	var count int
	if err := db.QueryRow(`SELECT count(*) FROM faqs WHERE product_id IS NULL AND category_id IS NULL`).Scan(&count); err != nil {
		log.Printf("Failed to count FAQs: %v", err)
		return
	}
	if count > 0 {
		fmt.Println("FAQs already present, skipping")
		return
	}

	fmt.Println("Seeding FAQs...")
	for i, f := range faqs {
		if _, err := db.Exec(`INSERT INTO faqs (id, question, answer, position) VALUES ($1, $2, $3, $4)`,
			uuid.New(), f.Question, f.Answer, i); err != nil {
			log.Printf("Failed to seed FAQ %q: %v", f.Question, err)
		}
	}
}
