package clean

// Curated ingredient keyword lists for the dietary rule engine, covering
// English, French and Spanish dump content. Matching is word-bounded and
// case-insensitive over the cleaned ingredients text.

// meatIngredients rule out both vegetarian and vegan.
var meatIngredients = []string{
	// en
	"beef", "pork", "chicken", "turkey", "lamb", "veal", "duck", "ham",
	"bacon", "sausage", "gelatin", "gelatine", "lard", "tallow", "rennet",
	"fish", "salmon", "tuna", "cod", "anchovy", "anchovies", "sardine",
	"shrimp", "prawn", "crab", "lobster", "oyster", "mussel", "squid",
	// fr
	"boeuf", "bœuf", "porc", "poulet", "dinde", "agneau", "veau", "canard",
	"jambon", "saucisse", "gélatine", "saindoux", "poisson", "saumon",
	"thon", "crevette", "viande",
	// es
	"carne", "cerdo", "pollo", "pavo", "cordero", "ternera", "pato",
	"jamón", "jamon", "tocino", "gelatina", "manteca", "pescado", "salmón",
	"atún", "atun", "gamba", "marisco",
}

// animalDerivedIngredients rule out vegan only.
var animalDerivedIngredients = []string{
	// en
	"milk", "cream", "butter", "cheese", "whey", "casein", "yogurt",
	"yoghurt", "egg", "eggs", "honey", "lactose", "ghee",
	// fr
	"lait", "crème", "creme", "beurre", "fromage", "lactosérum",
	"lactoserum", "caséine", "caseine", "yaourt", "oeuf", "œuf", "oeufs",
	"œufs", "miel",
	// es
	"leche", "nata", "mantequilla", "queso", "suero", "caseína", "caseina",
	"yogur", "huevo", "huevos", "lactosa",
}

// glutenIngredients rule out gluten-free.
var glutenIngredients = []string{
	// en
	"wheat", "barley", "rye", "spelt", "kamut", "triticale", "malt",
	"semolina", "couscous", "farro", "seitan",
	// fr
	"blé", "ble", "orge", "seigle", "épeautre", "epeautre", "froment",
	"semoule",
	// es
	"trigo", "cebada", "centeno", "espelta", "sémola", "semola", "malta",
}
