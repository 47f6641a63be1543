package assistant

// Category identifies the topic a reply was chosen for.
type Category string

const (
	CategoryClarification   Category = "clarification"
	CategoryContact         Category = "contact"
	CategoryOSInstall       Category = "os_install"
	CategoryActivation      Category = "activation"
	CategorySoftwareInstall Category = "software_install"
	CategoryUnlocking       Category = "unlocking"
	CategoryUpgrade         Category = "upgrade"
	CategoryDrivers         Category = "drivers"
	CategoryService         Category = "service"
	CategoryPerformance     Category = "performance"
	CategoryVirus           Category = "virus"
	CategoryDataRecovery    Category = "data_recovery"
	CategoryPricing         Category = "pricing"
	CategoryGreeting        Category = "greeting"
	CategoryFallback        Category = "fallback"
)

// Label returns a human-readable label for a category.
func (c Category) Label() string {
	labels := map[Category]string{
		CategoryClarification:   "Clarification",
		CategoryContact:         "Contact details",
		CategoryOSInstall:       "OS installation",
		CategoryActivation:      "Windows / Office activation",
		CategorySoftwareInstall: "Software installation",
		CategoryUnlocking:       "PC unlocking",
		CategoryUpgrade:         "RAM / SSD upgrades",
		CategoryDrivers:         "Driver installation",
		CategoryService:         "General service",
		CategoryPerformance:     "Performance",
		CategoryVirus:           "Virus / malware",
		CategoryDataRecovery:    "Data recovery",
		CategoryPricing:         "Pricing",
		CategoryGreeting:        "Greeting",
		CategoryFallback:        "Fallback",
	}
	if label, ok := labels[c]; ok {
		return label
	}
	return string(c)
}

// Rule maps a set of trigger substrings to a canned response.
// Triggers are lowercase and matched by plain substring containment.
type Rule struct {
	Category Category
	Triggers []string
	Response string
}

// Placeholders substituted into responses when a Responder is built.
const (
	placeholderName      = "{name}"
	placeholderShortName = "{short_name}"
	placeholderPhone     = "{phone}"
	placeholderEmail     = "{email}"
)

const clarificationResponse = "I didn't catch that. Could you rephrase your question about your computer issue?"

// defaultRules is the topic table in priority order. Categories share
// triggers on purpose ("slow", "ssd", "ram" and "upgrade" are in both the
// upgrade and performance rules); the earlier rule always wins.
var defaultRules = []Rule{
	{
		Category: CategoryContact,
		Triggers: []string{"contact", "phone", "email", "address", "where", "location", "hours"},
		Response: "You can reach {name} by phone at {phone} or email {email}. " +
			"You can also use the contact form on this page to describe your issue and we will get back to you as soon as possible.",
	},
	{
		Category: CategoryOSInstall,
		Triggers: []string{
			"windows 10", "win10", "windows10", "windows 11", "win11", "windows11",
			"zorin", "os install", "operating system", "format", "reinstall",
		},
		Response: "We offer full operating system installation services for Windows 10, Windows 11 and Zorin OS. " +
			"We can back up your important files (if possible), perform a clean or upgrade install, install basic drivers and updates, and make sure the system is ready for use. " +
			"Tell me which OS you are using now and what you would like to move to.",
	},
	{
		Category: CategoryActivation,
		Triggers: []string{"activate", "activation", "license", "licence", "product key", "office 2021", "microsoft office"},
		Response: "Activating Windows or Microsoft Office (including Office 2021) unlocks all the features and keeps your system properly updated. " +
			"At {short_name} we can handle the activation for you and make sure everything is set up correctly. " +
			"To arrange this, please send us a message using the contact form on this page or call us on {phone}.",
	},
	{
		Category: CategorySoftwareInstall,
		// "ms word" instead of a bare "word", which would swallow "password".
		Triggers: []string{
			"autocad", "photoshop", "adobe", "office", "ms word", "microsoft word", "excel", "powerpoint",
			"software install", "program install", "app install",
		},
		Response: "We install and configure software such as AutoCAD, Microsoft Office and Adobe Photoshop, as well as other common applications. " +
			"We check compatibility with your hardware, make sure installation completes correctly, and configure basic settings for you.",
	},
	{
		Category: CategoryUnlocking,
		Triggers: []string{"unlock", "locked", "password", "forgot password", "bitlocker", "user account", "cannot login", "cant login"},
		Response: "PC unlocking is one of our main services. If you are locked out of your account or forgot your password, we try to restore access without losing your data. " +
			"Please tell me if you are locked out of Windows itself, or just a specific account or file, so I can explain the safest options.",
	},
	{
		Category: CategoryUpgrade,
		Triggers: []string{"upgrade", "ram", "memory", "ssd", "hdd to ssd", "slow", "speed", "performance"},
		Response: "Upgrading RAM and moving from an HDD to an SSD is often the best way to speed up an older PC. " +
			"We can recommend the right RAM size and SSD type for your machine, install the parts, and move your system so it boots from the new drive.",
	},
	{
		Category: CategoryDrivers,
		Triggers: []string{
			"driver", "drivers", "wifi not working", "sound not working", "no audio", "no network",
			"display driver", "graphics driver",
		},
		Response: "If things like Wi‑Fi, sound, or graphics are not working properly, you may need correct drivers. " +
			"We install and update all required drivers so your hardware works reliably, then test that everything is stable.",
	},
	{
		Category: CategoryService,
		Triggers: []string{"repair", "fix", "service", "support", "help", "issue", "problem"},
		Response: "Here at {short_name} we focus on: operating system installation (Windows 10/11 and Zorin), Windows and Office activation, " +
			"software installation (AutoCAD, Office, Photoshop), PC unlocking, RAM and SSD upgrades, and driver installation. " +
			"Describe your problem in a sentence or two and I will tell you which of these services fits best and what the next step would be.",
	},
	{
		Category: CategoryPerformance,
		Triggers: []string{"slow", "lag", "freeze", "freezing", "upgrade", "ssd", "ram"},
		Response: "Slowness is often caused by background apps, an older hard drive, or limited RAM. " +
			"We can perform a full tune‑up and, if needed, upgrade you to an SSD or add more memory for a big speed boost.",
	},
	{
		Category: CategoryVirus,
		Triggers: []string{"virus", "malware", "ransomware", "popup", "adware", "hacked"},
		Response: "It sounds like you may have malware or unwanted software. We can run deep scans, remove infections, and help secure your system " +
			"with updates and better protection. Avoid entering passwords or banking details until the machine is cleaned.",
	},
	{
		Category: CategoryDataRecovery,
		Triggers: []string{"data", "files", "photos", "backup", "recover", "recovery", "lost"},
		Response: "Data loss can be serious. If the drive is failing, turn the computer off and avoid using it to prevent further damage. " +
			"We can attempt recovery of important files and then set up a proper backup so you are protected in the future.",
	},
	{
		Category: CategoryPricing,
		Triggers: []string{"price", "cost", "how much", "fee", "charge", "pricing", "quote"},
		Response: "Pricing depends on the issue and any parts needed. We provide a clear quote after diagnosis, and you can decide before any work is done. " +
			"Share your issue and we can estimate whether it is usually a quick fix or a more involved repair.",
	},
}

var greetingRule = Rule{
	Category: CategoryGreeting,
	Triggers: []string{"hello", "hi", "hey"},
	Response: "Hello! I am the {short_name} assistant. I can help with operating system installation," +
		" Windows / Office activation, software installation (AutoCAD, Office, Photoshop)," +
		" PC unlocking, RAM / SSD upgrades, and driver installation. " +
		"Tell me what is happening with your computer and which of these you think you need.",
}

const fallbackResponse = "Unfortunately I specialise in explaining the services offered at {name} only. " +
	"Our main services are: OS installation (Windows 10/11, Zorin), Windows and Office activation, software installs (AutoCAD, Office, Photoshop), " +
	"PC unlocking, RAM / SSD upgrades, and driver installation. If your message is not clearly about these, I would recommend sending us a message " +
	"using the contact form on this page or calling us directly on {phone} so we can help you properly."
