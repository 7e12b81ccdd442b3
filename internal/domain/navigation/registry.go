// Package navigation exposes the client route registry and derives
// breadcrumb trails from URL paths, substituting child ids with names.
package navigation

// Role access levels for client routes.
const (
	AccessPublic = "public"
	AccessParent = "parent"
	AccessDoctor = "doctor"
	AccessShared = "shared" // any authenticated role
)

// Route is one client path with its access requirement and French label.
type Route struct {
	Path     string `json:"path"`
	Label    string `json:"label"`
	Access   string `json:"access"`
	Redirect string `json:"redirect,omitempty"`
}

// FallbackRedirect is where unmatched paths land.
const FallbackRedirect = "/"

// routes is the fixed client routing table. Labels double as the
// breadcrumb translation table.
var routes = []Route{
	{Path: "/", Label: "Accueil", Access: AccessPublic},
	{Path: "/login", Label: "Connexion", Access: AccessPublic},
	{Path: "/register", Label: "Inscription", Access: AccessPublic},
	{Path: "/forgot-password", Label: "Mot de passe oublié", Access: AccessPublic},
	{Path: "/update-password", Label: "Mettre à jour le mot de passe", Access: AccessPublic},
	{Path: "/about", Label: "À Propos", Access: AccessPublic},
	{Path: "/features", Label: "Fonctionnalités", Access: AccessPublic},
	{Path: "/testimonials", Label: "Témoignages", Access: AccessPublic},
	{Path: "/contact", Label: "Contact", Access: AccessPublic},
	{Path: "/privacy", Label: "Politique de Confidentialité", Access: AccessPublic},
	{Path: "/terms", Label: "Conditions d'utilisation", Access: AccessPublic},
	{Path: "/legal", Label: "Mentions Légales", Access: AccessPublic},

	{Path: "/dashboard", Label: "Tableau de bord", Access: AccessParent, Redirect: "/login"},
	{Path: "/children", Label: "Mes Enfants", Access: AccessParent, Redirect: "/login"},
	{Path: "/children/new", Label: "Ajouter un enfant", Access: AccessParent, Redirect: "/login"},
	{Path: "/children/edit", Label: "Modifier le profil", Access: AccessParent, Redirect: "/login"},
	{Path: "/prediction", Label: "Prédiction", Access: AccessParent, Redirect: "/login"},
	{Path: "/prediction/start", Label: "Lancer une prédiction", Access: AccessParent, Redirect: "/login"},
	{Path: "/prediction/result", Label: "Résultat", Access: AccessParent, Redirect: "/login"},
	{Path: "/appointments", Label: "Mes Rendez-vous", Access: AccessParent, Redirect: "/login"},
	{Path: "/appointments/new", Label: "Nouveau rendez-vous", Access: AccessParent, Redirect: "/login"},
	{Path: "/payment/success", Label: "Paiement réussi", Access: AccessParent, Redirect: "/login"},
	{Path: "/profile", Label: "Profil", Access: AccessShared, Redirect: "/login"},

	{Path: "/doctor/dashboard", Label: "Tableau de bord Docteur", Access: AccessDoctor, Redirect: "/login"},
	{Path: "/doctor/patients", Label: "Mes Patients", Access: AccessDoctor, Redirect: "/login"},
	{Path: "/doctor/appointments", Label: "Mes Consultations", Access: AccessDoctor, Redirect: "/login"},
	{Path: "/doctor/profile", Label: "Profil", Access: AccessDoctor, Redirect: "/login"},

	{Path: "/messages", Label: "Messagerie", Access: AccessShared, Redirect: "/login"},
	{Path: "/consultation", Label: "Consultation", Access: AccessShared, Redirect: "/login"},
}

// Routes returns a copy of the registry.
func Routes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}

// labelFor returns the breadcrumb label for an exact path, or "".
func labelFor(path string) string {
	for _, r := range routes {
		if r.Path == path {
			return r.Label
		}
	}
	return ""
}

// Allowed reports whether a role may visit the route. Unknown paths are
// treated as public; the client handles them with the fallback redirect.
func Allowed(path, role string) bool {
	for _, r := range routes {
		if r.Path != path {
			continue
		}
		switch r.Access {
		case AccessPublic:
			return true
		case AccessShared:
			return role != ""
		default:
			return role == r.Access
		}
	}
	return true
}
